package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/DollarNoob/Pay/pkg/convert"
	"github.com/DollarNoob/Pay/pkg/parser"
	"github.com/DollarNoob/Pay/pkg/types"
)

var checkAddr string

var convertCmd = &cobra.Command{
	Use:   "convert <amount> [unit] <asset>",
	Short: "Preview how much of an asset an amount buys",
	Long: `Convert an amount in any supported unit into the asset's own amount
using live rates. Nothing is sent.

Examples:
  pay convert 10 USD TRX
  pay convert 15000 KRW LTC
  pay convert 20000 KIMCHI SOL --address 7xKXexample`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&checkAddr, "address", "", "Destination address to check")
}

func runConvert(cmd *cobra.Command, args []string) error {
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}
	req := convert.Request{Amount: amount, Unit: types.UnitCoin, Address: checkAddr}
	if len(args) == 3 {
		req.Unit = strings.ToUpper(args[1])
		req.Asset = parser.NormalizeTokenSymbol(args[2])
	} else {
		req.Asset = parser.NormalizeTokenSymbol(args[1])
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	preview, err := a.converter.Preview(cmd.Context(), req)
	if err != nil {
		return err
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(map[string]any{
			"amount":   req.Amount,
			"unit":     req.Unit,
			"asset":    preview.Currency.Code,
			"result":   preview.Normalized,
			"estimate": preview.Estimate,
			"address":  preview.Address.String(),
		}, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("\n  %s %s = %s %s\n", req.Amount, req.Unit,
		color.GreenString(preview.Normalized.StringFixed(convert.Places)), color.YellowString(preview.Currency.Code))
	if checkAddr != "" {
		fmt.Printf("  Address: %s (%s)\n", color.CyanString(checkAddr), preview.Address)
	}
	fmt.Println()
	return nil
}
