package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// OrderType selects how the exchange prices an order.
type OrderType string

const (
	OrderFixed OrderType = "fixed"
	OrderFloat OrderType = "float"
)

// Direction tells which side of the pair the amount refers to.
type Direction string

const (
	DirectionFrom Direction = "from"
	DirectionTo   Direction = "to"
)

// ErrorCode is a reason a quote is not actionable.
type ErrorCode string

const (
	ErrMaintenanceFrom ErrorCode = "MAINTENANCE_FROM"
	ErrMaintenanceTo   ErrorCode = "MAINTENANCE_TO"
	ErrOfflineFrom     ErrorCode = "OFFLINE_FROM"
	ErrOfflineTo       ErrorCode = "OFFLINE_TO"
	ErrReserveFrom     ErrorCode = "RESERVE_FROM"
	ErrReserveTo       ErrorCode = "RESERVE_TO"
	ErrLimitMin        ErrorCode = "LIMIT_MIN"
	ErrLimitMax        ErrorCode = "LIMIT_MAX"
)

// OrderStatus is the exchange-side lifecycle of an order.
type OrderStatus string

const (
	StatusNew       OrderStatus = "NEW"
	StatusPending   OrderStatus = "PENDING"
	StatusExchange  OrderStatus = "EXCHANGE"
	StatusWithdraw  OrderStatus = "WITHDRAW"
	StatusDone      OrderStatus = "DONE"
	StatusExpired   OrderStatus = "EXPIRED"
	StatusEmergency OrderStatus = "EMERGENCY"
)

// Terminal reports whether no further transitions happen from s.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusDone, StatusExpired, StatusEmergency:
		return true
	}
	return false
}

// Rank orders statuses along the happy path. Terminal statuses share the top rank.
func (s OrderStatus) Rank() int {
	switch s {
	case StatusNew:
		return 1
	case StatusPending:
		return 2
	case StatusExchange:
		return 3
	case StatusWithdraw:
		return 4
	case StatusDone, StatusExpired, StatusEmergency:
		return 5
	}
	return 0
}

// EmergencyChoice is the user's resolution of an emergency.
type EmergencyChoice string

const (
	ChoiceNone     EmergencyChoice = "NONE"
	ChoiceExchange EmergencyChoice = "EXCHANGE"
	ChoiceRefund   EmergencyChoice = "REFUND"
)

// Text decodes JSON strings, numbers and null into a string. The exchange
// mixes those freely for optional fields.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(b)
	return nil
}

// Int parses t as an integer, returning 0 when empty or malformed.
func (t Text) Int() int {
	n, err := strconv.Atoi(string(t))
	if err != nil {
		return 0
	}
	return n
}

// Currency is a listing from the ccies endpoint.
type Currency struct {
	Code     string `json:"code"`
	Coin     string `json:"coin"`
	Network  string `json:"network"`
	Name     string `json:"name"`
	Recv     bool   `json:"recv"`
	Send     bool   `json:"send"`
	Tag      Text   `json:"tag"`
	Logo     string `json:"logo"`
	Color    string `json:"color"`
	Priority int    `json:"priority"`
}

// Asset is one side of a quote.
type Asset struct {
	Code      string          `json:"code"`
	Network   string          `json:"network"`
	Coin      string          `json:"coin"`
	Amount    decimal.Decimal `json:"amount"`
	Rate      decimal.Decimal `json:"rate"`
	Precision int             `json:"precision"`
	Min       decimal.Decimal `json:"min"`
	Max       decimal.Decimal `json:"max"`
	USD       decimal.Decimal `json:"usd"`
	BTC       Text            `json:"btc,omitempty"`
}

// Quote is the price endpoint's answer. A quote with errors is not actionable.
type Quote struct {
	From   Asset       `json:"from"`
	To     Asset       `json:"to"`
	Errors []ErrorCode `json:"errors"`
}

// Actionable reports whether an order may be created from q.
func (q *Quote) Actionable() bool { return len(q.Errors) == 0 }

// Tx is a chain transaction observed by the exchange.
type Tx struct {
	ID            Text `json:"id"`
	Amount        Text `json:"amount"`
	Fee           Text `json:"fee"`
	CcyFee        Text `json:"ccyfee"`
	TimeReg       Text `json:"timeReg"`
	TimeBlock     Text `json:"timeBlock"`
	Confirmations Text `json:"confirmations"`
}

// OrderSide describes the deposit, payout or refund leg of an order.
type OrderSide struct {
	Code             Text `json:"code"`
	Coin             Text `json:"coin"`
	Network          Text `json:"network"`
	Name             Text `json:"name"`
	Alias            Text `json:"alias"`
	Amount           Text `json:"amount"`
	Address          Text `json:"address"`
	AddressAlt       Text `json:"addressAlt,omitempty"`
	Tag              Text `json:"tag"`
	TagName          Text `json:"tagName"`
	ReqConfirmations int  `json:"reqConfirmations,omitempty"`
	MaxConfirmations int  `json:"maxConfirmations,omitempty"`
	Tx               Tx   `json:"tx"`
}

// AmountDecimal parses the leg amount, returning zero when absent.
func (s OrderSide) AmountDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(string(s.Amount))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// OrderTime holds unix timestamps; unset values are zero.
type OrderTime struct {
	Reg        int64 `json:"reg"`
	Start      int64 `json:"start"`
	Finish     int64 `json:"finish"`
	Update     int64 `json:"update"`
	Expiration int64 `json:"expiration"`
	Left       int64 `json:"left"`
}

// Emergency describes why an order needs a manual decision.
type Emergency struct {
	Status []string        `json:"status"`
	Choice EmergencyChoice `json:"choice"`
	Repeat Text            `json:"repeat"`
}

// Order is an exchange order. Token authorizes reads and emergency actions
// and must not be logged.
type Order struct {
	ID        string      `json:"id"`
	Type      OrderType   `json:"type"`
	Email     string      `json:"email"`
	Status    OrderStatus `json:"status"`
	Time      OrderTime   `json:"time"`
	From      OrderSide   `json:"from"`
	To        OrderSide   `json:"to"`
	Back      OrderSide   `json:"back"`
	Emergency Emergency   `json:"emergency"`
	Token     string      `json:"token"`
}

// String omits the token.
func (o *Order) String() string {
	return fmt.Sprintf("Order{id=%s status=%s from=%s %s to=%s %s}",
		o.ID, o.Status, o.From.Amount, o.From.Code, o.To.Amount, o.To.Code)
}

// PriceRequest asks for a quote.
type PriceRequest struct {
	Type      OrderType
	FromCcy   string
	ToCcy     string
	Direction Direction
	Amount    decimal.Decimal
}

// CreateRequest creates an order paying out to ToAddress.
type CreateRequest struct {
	PriceRequest
	ToAddress string
}

type pricePayload struct {
	Type      OrderType   `json:"type"`
	FromCcy   string      `json:"fromCcy"`
	ToCcy     string      `json:"toCcy"`
	Direction Direction   `json:"direction"`
	Amount    json.Number `json:"amount"`
}

type createPayload struct {
	pricePayload
	ToAddress string `json:"toAddress"`
}

type orderPayload struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

type emergencyPayload struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Choice  EmergencyChoice `json:"choice"`
	Address string          `json:"address,omitempty"`
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (r PriceRequest) payload() pricePayload {
	return pricePayload{
		Type:      r.Type,
		FromCcy:   r.FromCcy,
		ToCcy:     r.ToCcy,
		Direction: r.Direction,
		Amount:    json.Number(r.Amount.String()),
	}
}
