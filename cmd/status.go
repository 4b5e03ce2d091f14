package cmd

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status <order-id>",
	Aliases: []string{"resume"},
	Short:   "Resume tracking an order",
	Long: `Resume tracking an order from its last checkpoint. Orders already known
to be finished are shown without contacting the exchange.

Examples:
  pay status ABC123
  pay resume ABC123 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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
	defer p.stop()
	p.wait("Checking order status...")

	if _, err := a.orch.Resume(ctx, args[0], a.sink(p)); err != nil {
		return ErrReported
	}
	return nil
}
