package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DollarNoob/Pay/pkg/swap"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the user's custody balance",
	Long: `Show the custody wallet address and its balances with a USD estimate.
A wallet is provisioned on first use.

Examples:
  pay balance --user 1234`,
	Args: cobra.NoArgs,
	RunE: runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	user, err := userFlag(cmd)
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.withCustody(ctx); err != nil {
		return err
	}

	p := newPrinter(jsonOutput)
	p.wait("Reading balance...")
	rep, err := a.orch.Balance(ctx, user)
	p.stop()
	if err != nil {
		return err
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(rep, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	render(os.Stdout, swap.BalanceProjection(rep))
	fmt.Println()
	return nil
}
