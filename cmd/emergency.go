package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DollarNoob/Pay/pkg/client"
)

var refundAddr string

var emergencyCmd = &cobra.Command{
	Use:   "emergency <order-id> <exchange|refund>",
	Short: "Resolve an order stuck in EMERGENCY",
	Long: `Tell the exchange how to settle an order in EMERGENCY: continue the
exchange at the current rate, or refund the deposit. Refunds go to the user's
custody wallet unless --refund-to is given.

Examples:
  pay emergency ABC123 exchange
  pay emergency ABC123 refund
  pay emergency ABC123 refund --refund-to 0x2222222222222222222222222222222222222222`,
	Args: cobra.ExactArgs(2),
	RunE: runEmergency,
}

func init() {
	rootCmd.AddCommand(emergencyCmd)

	emergencyCmd.Flags().StringVar(&refundAddr, "refund-to", "", "Refund address (default: custody wallet)")
}

func runEmergency(cmd *cobra.Command, args []string) error {
	orderID := args[0]
	choice := client.EmergencyChoice(strings.ToUpper(args[1]))
	if choice != client.ChoiceExchange && choice != client.ChoiceRefund {
		return fmt.Errorf("choice must be exchange or refund, got %q", args[1])
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

	ok, err := a.orch.ResolveEmergency(ctx, orderID, choice, refundAddr)
	if err != nil {
		return err
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(map[string]any{"order_id": orderID, "choice": choice, "accepted": ok}, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	if !ok {
		return fmt.Errorf("the exchange did not accept %s for order %s", strings.ToLower(string(choice)), orderID)
	}
	printSuccess(fmt.Sprintf("Order %s will %s. Track it with: pay status %s", orderID, strings.ToLower(string(choice)), orderID))
	return nil
}
