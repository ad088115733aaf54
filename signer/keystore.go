package signer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

var _ TypedDataSigner = (*KeystoreSigner)(nil)

// KeystoreSigner signs with a key held in an encrypted go-ethereum keystore.
// The key is decrypted inside the keystore for each signature.
type KeystoreSigner struct {
	ks         *keystore.KeyStore
	account    accounts.Account
	passphrase string
}

// NewKeystoreSigner opens the keystore in dir and selects address.
func NewKeystoreSigner(dir, address, passphrase string) (*KeystoreSigner, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid keystore account %q", address)
	}
	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
	return NewKeystoreSignerFrom(ks, common.HexToAddress(address), passphrase)
}

// NewKeystoreSignerFrom uses an already opened keystore.
func NewKeystoreSignerFrom(ks *keystore.KeyStore, address common.Address, passphrase string) (*KeystoreSigner, error) {
	account, err := ks.Find(accounts.Account{Address: address})
	if err != nil {
		return nil, fmt.Errorf("keystore account %s: %w", address.Hex(), err)
	}
	return &KeystoreSigner{ks: ks, account: account, passphrase: passphrase}, nil
}

func (k *KeystoreSigner) Address() common.Address {
	return k.account.Address
}

func (k *KeystoreSigner) SignTypedData(ctx context.Context, td apitypes.TypedData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, err := TypedDataHash(td)
	if err != nil {
		return nil, err
	}
	return k.ks.SignHashWithPassphrase(k.account, k.passphrase, hash)
}
