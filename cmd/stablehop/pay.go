package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stablehop/stablehop/autopay"
)

var (
	payMethod string
	payBody   string
)

var payCmd = &cobra.Command{
	Use:   "pay <url>",
	Short: "Request a URL and pay its 402 challenge",
	Long: `Send a request and, if the server answers 402 Payment Required, sign an
EIP-3009 authorization, settle it through the facilitator and retry once.

Examples:
  stablehop pay https://api.example.com/forecast
  stablehop pay https://api.example.com/forecast -X POST -d '{"q":"weather"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runPay,
}

func init() {
	rootCmd.AddCommand(payCmd)

	payCmd.Flags().StringVarP(&payMethod, "method", "X", http.MethodGet, "HTTP method")
	payCmd.Flags().StringVarP(&payBody, "data", "d", "", "Request body")
}

func runPay(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	sess.kit.AutoPay.On(func(_ context.Context, e autopay.Event) error {
		if jsonOutput {
			return nil
		}
		switch e.Type {
		case autopay.EventPaymentSettled:
			if e.Receipt == nil {
				return nil
			}
			fmt.Printf("  %s invoice %s, tx %s\n", color.GreenString("paid"), e.InvoiceID, e.Receipt.TxHash)
		case autopay.EventPaymentFailed:
			fmt.Printf("  %s invoice %s: %v\n", color.RedString("payment failed"), e.InvoiceID, e.Err)
		}
		return nil
	})

	var body io.Reader
	if payBody != "" {
		body = strings.NewReader(payBody)
	}
	req, err := http.NewRequestWithContext(cmd.Context(), payMethod, args[0], body)
	if err != nil {
		return err
	}
	if payBody != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := sess.kit.AutoPay.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]any{"status": resp.StatusCode, "body": string(data)})
	}
	fmt.Printf("\n  %s\n\n%s\n", resp.Status, data)
	return nil
}
