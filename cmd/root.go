package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ErrReported is returned by commands whose failure was already rendered.
var ErrReported = errors.New("failure already reported")

var rootCmd = &cobra.Command{
	Use:   "pay",
	Short: "Send crypto from a custody USDT balance through FixedFloat",
	Long: `pay sends any supported asset to an address, funded from the user's
custody USDT balance. The USDT is exchanged through FixedFloat and the order is
tracked until the payout lands.

Examples:
  pay swap 10 USD TRX to TJRabPrwbZy45sbavfcjinPJC18kjpRTv8 --user 1234
  pay send 5 USDT to 0x2222222222222222222222222222222222222222 --user 1234
  pay convert 15000 KRW LTC
  pay status <order-id>
  pay balance --user 1234
  pay currencies`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, ErrReported) {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringP("user", "u", "", "User the custody wallet belongs to")
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "\n%s %v\n\n", color.RedString("Error:"), err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", color.GreenString(message))
}

func userFlag(cmd *cobra.Command) (string, error) {
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		return "", fmt.Errorf("--user is required")
	}
	return user, nil
}
