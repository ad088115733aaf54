package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stablehop/stablehop/types"
)

var (
	watchStatus bool
	statusTx    string
	statusFrom  int64
	statusTo    int64
)

var statusCmd = &cobra.Command{
	Use:   "status <provider> <route-id>",
	Short: "Check the status of a conversion",
	Long: `Check the status of a conversion by the route id its provider returned.

Examples:
  stablehop status relay 0xrequest
  stablehop status lifi 0xroute --tx 0xsourcehash --from-chain 8453 --watch`,
	Args: cobra.ExactArgs(2),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Poll until the order is terminal")
	statusCmd.Flags().StringVar(&statusTx, "tx", "", "Source transaction hash")
	statusCmd.Flags().Int64Var(&statusFrom, "from-chain", 0, "Source chain id")
	statusCmd.Flags().Int64Var(&statusTo, "to-chain", 0, "Destination chain id")
}

func runStatus(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	provider := types.ProviderName(args[0])
	ref := types.StatusRef{RouteID: args[1], TxHash: statusTx, FromChainID: statusFrom, ToChainID: statusTo}

	if watchStatus {
		if jsonOutput {
			return fmt.Errorf("watch mode not supported with JSON output")
		}
		fmt.Printf("\nWatching %s order %s. Press Ctrl+C to stop.\n", provider, color.CyanString(ref.RouteID))
		st, err := sess.kit.WaitForCompletion(cmd.Context(), provider, ref, func(st types.BridgeStatus, attempt int) {
			fmt.Printf("  [%d] %s\n", attempt, coloredState(st.State))
		})
		displayStatus(st, ref.RouteID)
		return err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking status..."
		s.Start()
	}
	st, err := sess.kit.Aggregator.GetStatus(cmd.Context(), provider, ref)
	s.Stop()
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(st)
	}
	displayStatus(st, ref.RouteID)
	return nil
}

func displayStatus(st types.BridgeStatus, routeID string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                          ORDER STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Route:           %s\n", color.CyanString(routeID))
	fmt.Printf("  Status:          %s\n", coloredState(st.State))
	if st.ProviderStatus != "" {
		fmt.Printf("  Provider status: %s\n", st.ProviderStatus)
	}
	if st.DestTxHash != "" {
		fmt.Printf("  Destination Tx:  %s\n", color.HiBlackString(st.DestTxHash))
	}
	if st.Error != "" {
		fmt.Printf("  Error:           %s\n", color.RedString(st.Error))
	}
	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func coloredState(s types.StatusState) string {
	label := strings.ToUpper(string(s))
	switch s {
	case types.StatusCompleted:
		return color.GreenString(label)
	case types.StatusPending:
		return color.YellowString(label)
	case types.StatusFailed:
		return color.RedString(label)
	default:
		return color.MagentaString(label)
	}
}
