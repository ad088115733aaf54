package autopay_test

import (
	"fmt"

	"github.com/stablehop/stablehop/autopay"
	"github.com/stablehop/stablehop/types"
)

func ExampleChoosePaymentOption() {
	options := []types.PaymentOption{
		{Network: types.NetworkBase, Scheme: types.SchemeTransferWithAuthorization, Amount: "100000"},
		{Network: types.NetworkPlasma, Scheme: types.SchemeGaslessRouter, Amount: "100000"},
		{Network: types.NetworkPlasma, Scheme: types.SchemeTransferWithAuthorization, Amount: "100000"},
	}

	opt := autopay.ChoosePaymentOption(options, types.NetworkPlasma)
	fmt.Println(opt.Network, opt.Scheme)
	// Output: plasma eip3009-transfer-with-authorization
}
