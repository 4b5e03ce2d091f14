package swap

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/DollarNoob/Pay/pkg/apperror"
	"github.com/DollarNoob/Pay/pkg/client"
	"github.com/DollarNoob/Pay/pkg/types"
)

// Action labels shown by the gateway.
const (
	LabelViewTransaction = "View Transaction"
	LabelCopyTransaction = "Copy Transaction ID"
	LabelViewOrder       = "View Order"
	LabelCopyAddress     = "Copy Address"
	LabelResume          = "Resume"
)

const feeNote = "(0.5% fees)"

// stageFor maps an exchange status to the orchestrator stage it projects.
func stageFor(s client.OrderStatus) types.Stage {
	switch s {
	case client.StatusDone:
		return types.StageDone
	case client.StatusExpired:
		return types.StageExpired
	case client.StatusEmergency:
		return types.StageEmergency
	}
	return types.StagePolling
}

func orderTitle(s client.OrderStatus, name string) string {
	switch s {
	case client.StatusPending:
		return "⏳ Pending confirmations..."
	case client.StatusExchange:
		return fmt.Sprintf("📦 Exchanging %s...", name)
	case client.StatusWithdraw:
		return fmt.Sprintf("📨 Sending %s...", name)
	case client.StatusDone:
		return "✅ Sent " + name
	case client.StatusExpired:
		return "🪫 Order expired"
	case client.StatusEmergency:
		return "⏰ Emergency: View your order and place a refund"
	}
	return fmt.Sprintf("📦 Requesting %s...", name)
}

func orderColor(s client.OrderStatus) int {
	switch s {
	case client.StatusDone:
		return types.ColorGreen
	case client.StatusExpired:
		return types.ColorGrey
	case client.StatusEmergency:
		return types.ColorRed
	}
	return types.ColorBlue
}

// quoteRejection explains every error code of an unactionable quote.
func quoteRejection(q *client.Quote, src, dst types.Currency) string {
	msgs := make([]string, 0, len(q.Errors))
	for _, code := range q.Errors {
		msgs = append(msgs, quoteErrorText(code, q, src, dst))
	}
	return strings.Join(msgs, "\n\n")
}

func quoteErrorText(code client.ErrorCode, q *client.Quote, src, dst types.Currency) string {
	switch code {
	case client.ErrMaintenanceFrom:
		return src.Name + " is under maintenance!\nPlease try again later."
	case client.ErrMaintenanceTo:
		return dst.Name + " is under maintenance!\nPlease choose another currency."
	case client.ErrOfflineFrom:
		return src.Name + " is currently unavailable!\nPlease try again later."
	case client.ErrOfflineTo:
		return dst.Name + " is currently unavailable!\nPlease choose another currency."
	case client.ErrReserveFrom:
		return fmt.Sprintf("Not enough %s is reserved!\nPlease send below %s %s.", src.Name, q.From.Max, src.Code)
	case client.ErrReserveTo:
		return fmt.Sprintf("Not enough %s is reserved!\nPlease send below %s %s.", dst.Name, q.To.Max, dst.Code)
	case client.ErrLimitMin:
		return fmt.Sprintf("You must send atleast %s %s.", q.From.Min, src.Code)
	case client.ErrLimitMax:
		return fmt.Sprintf("You must send less than %s %s.", q.From.Max, src.Code)
	}
	return string(code)
}

func insufficientText(e *apperror.AppError, src types.Currency) string {
	return strings.Join([]string{
		fmt.Sprintf("You are %s %s short!", e.Shortfall, src.Code),
		fmt.Sprintf("%s / %s %s", e.Balance, e.Required, src.Code),
		"",
		"Please top up more balance and retry.",
	}, "\n")
}

// describe renders the user-facing reason of a failure.
func describe(err error) string {
	if appErr, ok := apperror.As(err); ok {
		return appErr.Message
	}
	return err.Error()
}

func amountOf(side client.OrderSide) string {
	return side.AmountDecimal().String()
}

// orderLines is the common body of every order projection.
func (r *run) orderLines(o *client.Order) []string {
	return []string{
		"`" + r.destination + "`",
		"",
		fmt.Sprintf("%s %s -> %s %s %s", amountOf(o.From), r.src.Code, amountOf(o.To), r.dst.Code, feeNote),
	}
}

func (r *run) orderProjection(o *client.Order) types.StatusProjection {
	lines := r.orderLines(o)
	switch o.Status {
	case client.StatusNew:
		lines = append(lines, "", "This is an estimate, the final amount may vary.")
	case client.StatusPending:
		lines = append(lines, "",
			fmt.Sprintf("Waiting %d / %d confirmations.", o.From.Tx.Confirmations.Int(), o.From.ReqConfirmations),
			"This step usually does not take more than a minute.")
	}

	p := r.projection(stageFor(o.Status), orderTitle(o.Status, r.dst.Name), strings.Join(lines, "\n"), orderColor(o.Status))
	p.OrderID = o.ID
	p.OrderStatus = string(o.Status)
	p.Actions = r.orderActions(o)
	return p
}

func (r *run) orderActions(o *client.Order) []types.Action {
	switch o.Status {
	case client.StatusPending:
		txID := r.sourceTxID
		if txID == "" {
			txID = string(o.From.Tx.ID)
		}
		if txID == "" {
			return nil
		}
		return []types.Action{{Kind: types.ActionLink, Label: LabelViewTransaction, Value: r.src.ExplorerTx + txID}}
	case client.StatusDone:
		txID := string(o.To.Tx.ID)
		if txID == "" {
			return nil
		}
		return []types.Action{
			{Kind: types.ActionCopy, Label: LabelCopyTransaction, Value: txID},
			{Kind: types.ActionLink, Label: LabelViewTransaction, Value: r.dst.ExplorerTx + txID},
		}
	case client.StatusExpired, client.StatusEmergency:
		return []types.Action{{Kind: types.ActionLink, Label: LabelViewOrder, Value: r.orderURL + o.ID}}
	}
	return nil
}

func resumeAction(orderID string) types.Action {
	return types.Action{Kind: types.ActionResume, Label: LabelResume, Value: orderID}
}

// degradedProjection reports a failed status read. The order is untouched.
func (r *run) degradedProjection(last *client.Order) types.StatusProjection {
	var lines []string
	if last != nil {
		lines = r.orderLines(last)
		lines = append(lines, "")
	}
	lines = append(lines, "An internal server error has occurred.", "Press resume to keep tracking your order.")

	p := r.projection(types.StagePolling, orderTitle(client.StatusNew, r.dst.Name), strings.Join(lines, "\n"), types.ColorRed)
	p.OrderID = r.orderID
	if last != nil {
		p.OrderStatus = string(last.Status)
	}
	p.ErrorCode = apperror.CodePollingDegraded
	p.Actions = []types.Action{resumeAction(r.orderID)}
	return p
}

// stalledProjection reports an order still in flight when the polling bound ran out.
func (r *run) stalledProjection(last *client.Order) types.StatusProjection {
	status := client.StatusNew
	var lines []string
	if last != nil {
		status = last.Status
		lines = append(r.orderLines(last), "")
	}
	lines = append(lines,
		fmt.Sprintf("Your order is still %s.", strings.ToLower(string(status))),
		"Press resume to keep tracking it.")

	p := r.projection(types.StagePolling, orderTitle(status, r.dst.Name), strings.Join(lines, "\n"), types.ColorBlue)
	p.OrderID = r.orderID
	p.OrderStatus = string(status)
	p.Actions = []types.Action{resumeAction(r.orderID)}
	return p
}

// checkpointOrder rebuilds the last known order view from a checkpoint.
func checkpointOrder(cp *types.Checkpoint) *client.Order {
	return &client.Order{
		ID:     cp.OrderID,
		Status: client.OrderStatus(cp.LastStatus),
		From:   client.OrderSide{Amount: client.Text(cp.FromAmount), Tx: client.Tx{ID: client.Text(cp.SourceTxID)}},
		To:     client.OrderSide{Amount: client.Text(cp.ToAmount), Tx: client.Tx{ID: client.Text(cp.PayoutTxID)}},
	}
}

// Holding is one asset balance of a custody wallet.
type Holding struct {
	Asset  string
	Amount decimal.Decimal
	USD    *decimal.Decimal // nil when no price was available
}

// BalanceReport lists a user's custody holdings.
type BalanceReport struct {
	UserID   string
	Address  string
	Chain    types.Chain
	Holdings []Holding
}

// BalanceProjection renders a report the way swaps are rendered.
func BalanceProjection(rep *BalanceReport) types.StatusProjection {
	lines := make([]string, 0, len(rep.Holdings))
	for _, h := range rep.Holdings {
		line := fmt.Sprintf("%s %s", h.Amount, h.Asset)
		if h.USD != nil {
			line += fmt.Sprintf(" (~%s USD)", h.USD.StringFixed(2))
		}
		lines = append(lines, line)
	}
	return types.StatusProjection{
		UserID:      rep.UserID,
		Stage:       types.StageDone,
		Title:       "🪙 Your Balance",
		Description: strings.Join(lines, "\n"),
		Color:       types.ColorBlue,
		Actions:     []types.Action{{Kind: types.ActionCopy, Label: LabelCopyAddress, Value: rep.Address}},
	}
}
