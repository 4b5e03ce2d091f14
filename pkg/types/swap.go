package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// SwapRequest represents a user's send command
type SwapRequest struct {
	UserID      string
	Amount      decimal.Decimal
	Unit        string // COIN, USD, KRW, KIMCHI, TRY, JPY, CNY
	Asset       string // destination currency code, e.g. TRX
	Destination string

	// SourceOverride replaces the default custody asset (USDTPOL).
	SourceOverride string
}

// Stage is a step of the swap state machine.
type Stage string

const (
	StageQuoting           Stage = "QUOTING"
	StageBalanceCheck      Stage = "BALANCE_CHECK"
	StageOrderCreated      Stage = "ORDER_CREATED"
	StageBalanceRecheck    Stage = "BALANCE_RECHECK"
	StageTransferSubmitted Stage = "TRANSFER_SUBMITTED"
	StagePolling           Stage = "POLLING"
	StageDone              Stage = "DONE"
	StageExpired           Stage = "EXPIRED"
	StageEmergency         Stage = "EMERGENCY"
	StageFailed            Stage = "FAILED"
)

// Terminal reports whether no further automatic transitions happen from s.
func (s Stage) Terminal() bool {
	switch s {
	case StageDone, StageExpired, StageEmergency, StageFailed:
		return true
	}
	return false
}

// Embed colors.
const (
	ColorBlue  = 0x5865F2
	ColorGreen = 0x33BB33
	ColorGrey  = 0x333333
	ColorRed   = 0xEE3333
)

// ActionKind tells the gateway how to render an action.
type ActionKind string

const (
	ActionLink   ActionKind = "link"   // open Value as URL
	ActionCopy   ActionKind = "copy"   // copy Value to clipboard
	ActionResume ActionKind = "resume" // re-enter polling for order Value
)

// Action is a follow-up the user can take on a projection.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Label string     `json:"label"`
	Value string     `json:"value"`
}

// StatusProjection is one user-visible update of a swap in flight.
type StatusProjection struct {
	SwapID      string    `json:"swap_id"`
	OrderID     string    `json:"order_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Stage       Stage     `json:"stage"`
	OrderStatus string    `json:"order_status,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       int       `json:"color"`
	Actions     []Action  `json:"actions,omitempty"`
	ErrorCode   string    `json:"error_code,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Final reports whether this projection ends its stream.
func (p StatusProjection) Final() bool {
	return p.Stage.Terminal()
}
