package autopay

import "github.com/stablehop/stablehop/types"

// schemeRank orders the supported schemes; lower is preferred.
var schemeRank = map[types.PaymentScheme]int{
	types.SchemeTransferWithAuthorization: 0,
	types.SchemeGaslessRouter:             1,
}

// Supported reports whether the client can pay with scheme.
func Supported(scheme types.PaymentScheme) bool {
	_, ok := schemeRank[scheme]
	return ok
}

// ChoosePaymentOption picks the option to pay. Options on the preferred
// network win, and among them the direct transfer scheme beats the router
// scheme. Failing that, the first option with any supported scheme is
// returned. It returns nil when no option is payable.
func ChoosePaymentOption(options []types.PaymentOption, preferred types.Network) *types.PaymentOption {
	var best *types.PaymentOption
	for i := range options {
		opt := &options[i]
		if opt.Network != preferred || !Supported(opt.Scheme) {
			continue
		}
		if best == nil || schemeRank[opt.Scheme] < schemeRank[best.Scheme] {
			best = opt
		}
	}
	if best != nil {
		return best
	}

	for i := range options {
		if Supported(options[i].Scheme) {
			return &options[i]
		}
	}
	return nil
}
