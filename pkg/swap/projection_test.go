package swap

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/DollarNoob/Pay/pkg/client"
	"github.com/DollarNoob/Pay/pkg/types"
)

func TestStageFor(t *testing.T) {
	assert.Equal(t, types.StageDone, stageFor(client.StatusDone))
	assert.Equal(t, types.StageExpired, stageFor(client.StatusExpired))
	assert.Equal(t, types.StageEmergency, stageFor(client.StatusEmergency))
	for _, s := range []client.OrderStatus{client.StatusNew, client.StatusPending, client.StatusExchange, client.StatusWithdraw} {
		assert.Equal(t, types.StagePolling, stageFor(s), s)
	}
}

func TestOrderTitles(t *testing.T) {
	cases := map[client.OrderStatus]string{
		client.StatusNew:       "📦 Requesting Litecoin...",
		client.StatusPending:   "⏳ Pending confirmations...",
		client.StatusExchange:  "📦 Exchanging Litecoin...",
		client.StatusWithdraw:  "📨 Sending Litecoin...",
		client.StatusDone:      "✅ Sent Litecoin",
		client.StatusExpired:   "🪫 Order expired",
		client.StatusEmergency: "⏰ Emergency: View your order and place a refund",
	}
	for status, want := range cases {
		assert.Equal(t, want, orderTitle(status, "Litecoin"))
	}
}

func TestQuoteErrorText(t *testing.T) {
	src, _ := types.LookupCurrency("USDTPOL")
	dst, _ := types.LookupCurrency("LTC")
	q := &client.Quote{
		From: client.Asset{Max: decimal.RequireFromString("900")},
		To:   client.Asset{Max: decimal.RequireFromString("12.5")},
	}

	assert.Equal(t, "Litecoin is under maintenance!\nPlease choose another currency.",
		quoteErrorText(client.ErrMaintenanceTo, q, src, dst))
	assert.Equal(t, "Not enough Litecoin is reserved!\nPlease send below 12.5 LTC.",
		quoteErrorText(client.ErrReserveTo, q, src, dst))
	assert.Equal(t, "You must send less than 900 USDTPOL.",
		quoteErrorText(client.ErrLimitMax, q, src, dst))
	assert.Equal(t, "SOMETHING_NEW", quoteErrorText("SOMETHING_NEW", q, src, dst))
}

func TestEmergencyActions(t *testing.T) {
	dst, _ := types.LookupCurrency("LTC")
	r := &run{dst: dst, orderURL: DefaultOrderURL}

	for _, s := range []client.OrderStatus{client.StatusExpired, client.StatusEmergency} {
		actions := r.orderActions(&client.Order{ID: "ABC", Status: s})
		assert.Equal(t, []types.Action{{Kind: types.ActionLink, Label: LabelViewOrder, Value: "https://ff.io/order/ABC"}}, actions)
	}
	assert.Nil(t, r.orderActions(&client.Order{ID: "ABC", Status: client.StatusPending}))
	assert.Nil(t, r.orderActions(&client.Order{ID: "ABC", Status: client.StatusDone}))
}
