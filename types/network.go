package types

// Network represents an EVM network by name.
type Network string

const (
	NetworkPlasma        Network = "plasma"
	NetworkPlasmaTestnet Network = "plasma-testnet"
	NetworkEthereum      Network = "ethereum"
	NetworkBase          Network = "base"
	NetworkBaseSepolia   Network = "base-sepolia" // testnet
	NetworkArbitrum      Network = "arbitrum"
	NetworkOptimism      Network = "optimism"
	NetworkPolygon       Network = "polygon"
	NetworkBSC           Network = "bsc"
)

var networkChainIDs = map[Network]int64{
	NetworkPlasma:        9745,
	NetworkPlasmaTestnet: 9746,
	NetworkEthereum:      1,
	NetworkBase:          8453,
	NetworkBaseSepolia:   84532,
	NetworkArbitrum:      42161,
	NetworkOptimism:      10,
	NetworkPolygon:       137,
	NetworkBSC:           56,
}

// ChainID returns the EVM chain id of a known network.
func (n Network) ChainID() (int64, bool) {
	id, ok := networkChainIDs[n]
	return id, ok
}

func (n Network) IsTestnet() bool {
	return n == NetworkPlasmaTestnet || n == NetworkBaseSepolia
}

func (n Network) String() string {
	return string(n)
}

// NetworkForChainID returns the network name of a chain id.
func NetworkForChainID(id int64) (Network, bool) {
	for n, cid := range networkChainIDs {
		if cid == id {
			return n, true
		}
	}
	return "", false
}
