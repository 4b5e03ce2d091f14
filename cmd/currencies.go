package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DollarNoob/Pay/pkg/client"
	"github.com/DollarNoob/Pay/pkg/types"
)

var (
	filterSymbol string
	liveStatus   bool
)

var currenciesCmd = &cobra.Command{
	Use:     "currencies",
	Aliases: []string{"ls", "tokens"},
	Short:   "List the assets that can be sent",
	Long: `List every asset pay can send, with the amount units it accepts.
With --live, the exchange is asked whether each asset can currently be
received and sent.

Examples:
  pay currencies
  pay currencies --symbol usdt
  pay currencies --live`,
	Args: cobra.NoArgs,
	RunE: runCurrencies,
}

func init() {
	rootCmd.AddCommand(currenciesCmd)

	currenciesCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by currency code")
	currenciesCmd.Flags().BoolVar(&liveStatus, "live", false, "Check availability on the exchange")
}

type currencyRow struct {
	types.Currency
	Recv *bool `json:"recv,omitempty"`
	Send *bool `json:"send,omitempty"`
}

func runCurrencies(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	var rows []currencyRow
	for _, c := range types.Currencies() {
		if filterSymbol != "" && !strings.Contains(c.Code, strings.ToUpper(filterSymbol)) {
			continue
		}
		rows = append(rows, currencyRow{Currency: c})
	}

	if liveStatus {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		if !jsonOutput {
			s.Suffix = " Fetching exchange currencies..."
			s.Start()
		}
		listed, err := a.exchange.Currencies(cmd.Context())
		s.Stop()
		if err != nil {
			return err
		}
		markAvailability(rows, listed)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(rows, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	displayCurrencies(rows)
	return nil
}

func markAvailability(rows []currencyRow, listed []client.Currency) {
	byCode := make(map[string]client.Currency, len(listed))
	for _, c := range listed {
		byCode[c.Code] = c
	}
	for i := range rows {
		c, ok := byCode[rows[i].ExchangeCode]
		recv, send := ok && c.Recv, ok && c.Send
		rows[i].Recv = &recv
		rows[i].Send = &send
	}
}

func displayCurrencies(rows []currencyRow) {
	if len(rows) == 0 {
		fmt.Println("\nNo currencies found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        SUPPORTED CURRENCIES")
	fmt.Println(strings.Repeat("=", 70))

	for _, r := range rows {
		line := fmt.Sprintf("  %-10s  %-20s", color.YellowString(r.Code), r.Name)
		if r.Custody != "" {
			line += color.CyanString("  custody (%s)", r.Custody)
		}
		if r.Recv != nil {
			line += "  " + availability(*r.Recv && *r.Send)
		}
		fmt.Println(line)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("\nUnits: %s\n\n", strings.Join(types.Units(), ", "))
}

func availability(ok bool) string {
	if ok {
		return color.GreenString("AVAILABLE")
	}
	return color.RedString("UNAVAILABLE")
}
