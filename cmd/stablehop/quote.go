package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stablehop/stablehop/aggregator"
	"github.com/stablehop/stablehop/types"
	"github.com/stablehop/stablehop/utils"
)

var (
	fromChain   int64
	fromToken   string
	fromAmount  string
	userAddress string
	recipient   string
	slippageBps int
	quickQuote  bool
	txProvider  string
	fromDecs    int32
	toDecimals  int32
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Compare routes from every enabled provider",
	Long: `Ask every enabled provider for a route into the configured stablecoin and
print them best first. Amounts are integer base units.

Examples:
  stablehop quote --from-chain 8453 --from-token 0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913 --amount 1000000000 --user 0x1111...1111
  stablehop quote ... --quick`,
	Args: cobra.NoArgs,
	RunE: runQuote,
}

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Build the transaction for a provider's route",
	Args:  cobra.NoArgs,
	RunE:  runTx,
}

func init() {
	rootCmd.AddCommand(quoteCmd, txCmd)

	for _, c := range []*cobra.Command{quoteCmd, txCmd} {
		c.Flags().Int64Var(&fromChain, "from-chain", 0, "Source chain id")
		c.Flags().StringVar(&fromToken, "from-token", "", "Source token address")
		c.Flags().StringVar(&fromAmount, "amount", "", "Amount in base units, or a decimal amount with --from-decimals")
		c.Flags().Int32Var(&fromDecs, "from-decimals", -1, "Decimals of the source token; when set, --amount is a decimal amount")
		c.Flags().StringVar(&userAddress, "user", "", "Sending wallet")
		c.Flags().StringVar(&recipient, "recipient", "", "Receiving wallet (default: --user)")
		c.Flags().IntVar(&slippageBps, "slippage-bps", types.DefaultSlippageBps, "Slippage tolerance in basis points")
		_ = c.MarkFlagRequired("from-chain")
		_ = c.MarkFlagRequired("from-token")
		_ = c.MarkFlagRequired("amount")
		_ = c.MarkFlagRequired("user")
	}
	quoteCmd.Flags().Int32Var(&toDecimals, "to-decimals", 6, "Decimals of the destination stablecoin for display")
	quoteCmd.Flags().BoolVar(&quickQuote, "quick", false, "Return the first quote that arrives")
	txCmd.Flags().StringVar(&txProvider, "provider", "", "Provider to build with ("+providerList()+")")
	_ = txCmd.MarkFlagRequired("provider")
}

func providerList() string {
	names := make([]string, len(types.AllProviders))
	for i, p := range types.AllProviders {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func quoteParams() (types.QuoteParams, error) {
	amount := fromAmount
	if fromDecs >= 0 {
		units, err := utils.ParseUnits(fromAmount, fromDecs)
		if err != nil {
			return types.QuoteParams{}, types.NewError(types.ErrCodeInvalidParams, "invalid amount: %v", err)
		}
		amount = units.String()
	}
	to := recipient
	if to == "" {
		to = userAddress
	}
	bps := slippageBps
	return types.QuoteParams{
		FromChainID:      fromChain,
		FromToken:        fromToken,
		FromAmount:       amount,
		UserAddress:      userAddress,
		RecipientAddress: to,
		SlippageBps:      &bps,
	}, nil
}

func runQuote(cmd *cobra.Command, _ []string) error {
	params, err := quoteParams()
	if err != nil {
		return err
	}
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quotes..."
		s.Start()
	}

	if quickQuote {
		q := sess.kit.Aggregator.GetQuickQuote(cmd.Context(), params)
		s.Stop()
		if q == nil {
			return types.NewError(types.ErrCodeNoRoute, "no provider returned a quote")
		}
		if jsonOutput {
			return printJSON(q)
		}
		displayQuotes(&aggregator.QuoteResult{Best: q, All: []*types.BridgeQuote{q}})
		return nil
	}

	res, err := sess.kit.Aggregator.GetQuotes(cmd.Context(), params)
	s.Stop()
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(res)
	}
	displayQuotes(res)
	return nil
}

func displayQuotes(res *aggregator.QuoteResult) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                           QUOTES")
	fmt.Println(strings.Repeat("=", 70))

	if res.Best == nil {
		color.Yellow("\n  No route found")
	}
	for i, q := range res.All {
		marker := "  "
		if q == res.Best {
			marker = color.GreenString("* ")
		}
		fmt.Printf("\n%s%d. %s\n", marker, i+1, color.CyanString(string(q.Provider)))
		fmt.Printf("     Receive:     %s (min %s)\n", displayUnits(q.ToAmount), displayUnits(q.ToAmountMin))
		fmt.Printf("     Gas:         $%s\n", q.GasUSD.StringFixed(4))
		fmt.Printf("     Est. time:   %ds\n", q.EstimatedTimeSeconds)
		if q.PriceImpact != nil {
			fmt.Printf("     Impact:      %s%%\n", q.PriceImpact.Shift(2).StringFixed(3))
		}
		fmt.Printf("     Route:       %s\n", color.HiBlackString(q.RouteID))
	}
	for _, e := range res.Errors {
		fmt.Printf("\n  %s %s\n", color.RedString(string(e.Provider)+":"), e.Message)
	}
	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func runTx(cmd *cobra.Command, _ []string) error {
	params, err := quoteParams()
	if err != nil {
		return err
	}
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	tx, err := sess.kit.Aggregator.GetTransaction(cmd.Context(), types.ProviderName(txProvider), params)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(tx)
	}

	for i, call := range tx.Calls() {
		fmt.Printf("\n  Call %d on chain %d\n", i+1, call.ChainID)
		fmt.Printf("    To:    %s\n", color.CyanString(call.To))
		fmt.Printf("    Value: %s\n", call.Value)
		fmt.Printf("    Data:  %s\n", color.HiBlackString(call.Data))
	}
	fmt.Printf("\n  Route: %s\n\n", tx.RouteID)
	return nil
}

// displayUnits renders a base-unit amount with the destination decimals,
// falling back to the raw string.
func displayUnits(amount string) string {
	n, err := utils.ParseUint256(amount)
	if err != nil {
		return amount
	}
	return utils.FormatUnits(n, toDecimals)
}
