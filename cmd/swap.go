package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DollarNoob/Pay/pkg/address"
	"github.com/DollarNoob/Pay/pkg/convert"
	"github.com/DollarNoob/Pay/pkg/parser"
	"github.com/DollarNoob/Pay/pkg/types"
)

var (
	sourceAsset string
	noConfirm   bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> [unit] <asset> to <address>",
	Short: "Exchange custody USDT into an asset and send it",
	Long: `Quote, fund and track a FixedFloat order paying <asset> to <address>.
The order is funded from the user's custody balance.

The unit is optional and defaults to the asset itself. Supported units:
COIN, USD, KRW, KIMCHI, TRY, JPY, CNY.

Examples:
  pay swap 10 USD TRX to TJRabPrwbZy45sbavfcjinPJC18kjpRTv8 --user 1234
  pay swap 0.1 LTC to ltc1qexample --user 1234 --yes
  pay swap 15000 KRW SOL to 7xKXexample --user 1234 --from USDTSOL`,
	Args: cobra.MinimumNArgs(4),
	RunE: runSwap,
}

var sendCmd = &cobra.Command{
	Use:   "send <amount> [unit] <asset> to <address>",
	Short: "Send a custody asset directly, without an exchange",
	Long: `Transfer a custody-held asset straight from the user's wallet.

Examples:
  pay send 5 USDT to 0x2222222222222222222222222222222222222222 --user 1234
  pay send 10 USD USDTSOL to 7xKXexample --user 1234`,
	Args: cobra.MinimumNArgs(4),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(swapCmd)
	rootCmd.AddCommand(sendCmd)

	swapCmd.Flags().StringVar(&sourceAsset, "from", "", "Custody asset funding the swap (default from exchange.source)")
	for _, c := range []*cobra.Command{swapCmd, sendCmd} {
		c.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	}
}

func runSwap(cmd *cobra.Command, args []string) error {
	return runTransfer(cmd, args, false)
}

func runSend(cmd *cobra.Command, args []string) error {
	return runTransfer(cmd, args, true)
}

func runTransfer(cmd *cobra.Command, args []string, direct bool) error {
	user, err := userFlag(cmd)
	if err != nil {
		return err
	}
	req, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		return err
	}
	req.UserID = user
	req.SourceOverride = sourceAsset
	if err := parser.ValidateSwapRequest(req); err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if !noConfirm && !jsonOutput {
		preview, err := a.converter.Preview(ctx, convert.Request{Amount: req.Amount, Unit: req.Unit, Asset: req.Asset, Address: req.Destination})
		if err != nil {
			return err
		}
		displayPreview(preview, req)
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			return nil
		}
	}

	if err := a.withCustody(ctx); err != nil {
		return err
	}

	p := newPrinter(jsonOutput)
	defer p.stop()
	p.wait("Requesting order...")

	if direct {
		_, err = a.orch.DirectTransfer(ctx, *req, a.sink(p))
	} else {
		_, err = a.orch.Swap(ctx, *req, a.sink(p))
	}
	if err != nil {
		return ErrReported
	}
	return nil
}

func displayPreview(preview *convert.Preview, req *types.SwapRequest) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SEND PREVIEW")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Amount:            %s %s\n", req.Amount, req.Unit)
	fmt.Printf("  You send:          %s %s\n", preview.Normalized, color.YellowString(preview.Currency.Code))
	fmt.Printf("  To:                %s\n", color.CyanString(req.Destination))
	if preview.Estimate {
		fmt.Println("  (estimate from live rates, the final amount may vary)")
	}
	switch preview.Address {
	case address.Invalid:
		color.Red("  Warning: the address does not look like a valid %s address", preview.Currency.Name)
	case address.Unsupported:
		color.Yellow("  The address could not be checked")
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
