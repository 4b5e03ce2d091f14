// Package swap drives a custody-funded swap from quote to payout and projects
// every step to a sink.
package swap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/DollarNoob/Pay/pkg/address"
	"github.com/DollarNoob/Pay/pkg/apperror"
	"github.com/DollarNoob/Pay/pkg/client"
	"github.com/DollarNoob/Pay/pkg/convert"
	"github.com/DollarNoob/Pay/pkg/notify"
	"github.com/DollarNoob/Pay/pkg/parser"
	"github.com/DollarNoob/Pay/pkg/types"
	"github.com/DollarNoob/Pay/pkg/wallet"
)

const DefaultOrderURL = "https://ff.io/order/"

// Options tunes an Orchestrator. Zero values take defaults.
type Options struct {
	Source        string // custody asset funding swaps
	OrderURL      string // prefix of the exchange's order page
	PollInterval  time.Duration
	MaxAttempts   int
	Deadline      time.Duration // wall-clock ceiling of one polling run
	BalanceAssets []string      // defaults to the custody chain's native coin and Source
}

func (o Options) withDefaults() Options {
	if o.Source == "" {
		o.Source = types.DefaultSource
	}
	if o.OrderURL == "" {
		o.OrderURL = DefaultOrderURL
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 300
	}
	if o.Deadline <= 0 {
		o.Deadline = 10 * time.Minute
	}
	return o
}

// Deps are the collaborators of an Orchestrator. Locker and Checkpoints fall
// back to in-process implementations when nil.
type Deps struct {
	Exchange    Exchange
	Wallets     Wallets
	Converter   Converter
	Checkpoints Checkpoints
	Ledger      Ledger
	Locker      Locker
	Market      PriceSource
}

// Result summarizes how far a swap got.
type Result struct {
	SwapID  string
	Stage   types.Stage
	OrderID string
	Status  client.OrderStatus
	TxID    string // custody transfer funding the order
	Order   *client.Order
}

// Orchestrator runs swaps. It holds no per-swap state; one call is one task.
type Orchestrator struct {
	exchange    Exchange
	wallets     Wallets
	converter   Converter
	checkpoints Checkpoints
	ledger      Ledger
	locker      Locker
	market      PriceSource
	opts        Options
	logger      zerolog.Logger
	now         func() time.Time
}

// New creates an Orchestrator.
func New(deps Deps, opts Options, logger zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		exchange:    deps.Exchange,
		wallets:     deps.Wallets,
		converter:   deps.Converter,
		checkpoints: deps.Checkpoints,
		ledger:      deps.Ledger,
		locker:      deps.Locker,
		market:      deps.Market,
		opts:        opts.withDefaults(),
		logger:      logger.With().Str("component", "orchestrator").Logger(),
		now:         time.Now,
	}
	if o.locker == nil {
		o.locker = NewLocalLocker()
	}
	if o.checkpoints == nil {
		o.checkpoints = NewMemoryCheckpoints()
	}
	return o
}

// run carries the per-swap context used to build projections.
type run struct {
	swapID      string
	userID      string
	src         types.Currency
	dst         types.Currency
	destination string
	orderURL    string
	orderID     string
	sourceTxID  string
	sink        notify.Sink
	logger      zerolog.Logger
	now         func() time.Time
}

func (o *Orchestrator) newRun(userID, source, asset, destination string, sink notify.Sink) *run {
	if source == "" {
		source = o.opts.Source
	}
	src, ok := types.LookupCurrency(source)
	if !ok {
		src = types.Currency{Code: source, Name: source}
	}
	dst, ok := types.LookupCurrency(asset)
	if !ok {
		dst = types.Currency{Code: asset, Name: asset}
	}
	id := uuid.NewString()
	return &run{
		swapID:      id,
		userID:      userID,
		src:         src,
		dst:         dst,
		destination: destination,
		orderURL:    o.opts.OrderURL,
		sink:        sink,
		logger:      o.logger.With().Str("swap_id", id).Str("user_id", userID).Logger(),
		now:         o.now,
	}
}

func (r *run) projection(stage types.Stage, title, description string, color int) types.StatusProjection {
	return types.StatusProjection{
		SwapID:      r.swapID,
		OrderID:     r.orderID,
		UserID:      r.userID,
		Stage:       stage,
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   r.now().UTC(),
	}
}

func (r *run) emit(ctx context.Context, p types.StatusProjection) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Publish(ctx, p); err != nil {
		r.logger.Error().Err(err).Str("stage", string(p.Stage)).Msg("failed to publish projection")
	}
}

// fail projects err as the terminal FAILED update of this attempt and returns it.
func (r *run) fail(ctx context.Context, err error, description string, actions ...types.Action) error {
	title := "❌ Failed to send " + r.dst.Name
	if appErr, ok := apperror.As(err); ok && appErr.Code == apperror.CodeInsufficientFunds {
		title = "💵 Send " + r.dst.Name
		if description == "" {
			description = insufficientText(appErr, r.src)
		}
	}
	if description == "" {
		description = describe(err)
	}

	p := r.projection(types.StageFailed, title, description, types.ColorRed)
	p.ErrorCode = apperror.CodeOf(err)
	p.Actions = actions
	r.emit(ctx, p)

	r.logger.Warn().Err(err).Str("error_code", p.ErrorCode).Msg("swap failed")
	return err
}

func (r *run) result(stage types.Stage) *Result {
	return &Result{SwapID: r.swapID, Stage: stage, OrderID: r.orderID, TxID: r.sourceTxID}
}

func (r *run) txAction(txID string) types.Action {
	return types.Action{Kind: types.ActionLink, Label: LabelViewTransaction, Value: r.src.ExplorerTx + txID}
}

// normalize validates req in place, accepting the asset code itself as a unit.
func normalize(req *types.SwapRequest) error {
	req.Asset = parser.NormalizeTokenSymbol(req.Asset)
	req.Unit = strings.ToUpper(strings.TrimSpace(req.Unit))
	if req.Unit == req.Asset {
		req.Unit = types.UnitCoin
	}
	if req.SourceOverride != "" {
		req.SourceOverride = parser.NormalizeTokenSymbol(req.SourceOverride)
	}
	req.Destination = strings.TrimSpace(req.Destination)
	return parser.ValidateSwapRequest(req)
}

// Swap converts the user's custody funds into req.Asset paid to
// req.Destination. Projections are pushed to sink as the swap progresses; the
// returned error is the same failure the last projection reported.
func (o *Orchestrator) Swap(ctx context.Context, req types.SwapRequest, sink notify.Sink) (*Result, error) {
	err := normalize(&req)
	r := o.newRun(req.UserID, req.SourceOverride, req.Asset, req.Destination, sink)
	if err != nil {
		return r.result(types.StageFailed), r.fail(ctx, apperror.ErrValidation(err.Error()), "")
	}
	if r.src.Custody == "" {
		return r.result(types.StageFailed), r.fail(ctx, apperror.ErrValidation(r.src.Code+" cannot be used as a source"), "")
	}
	if r.dst.Code == r.src.Code {
		return o.directTransfer(ctx, r, req)
	}

	// QUOTING
	preview, err := o.converter.Preview(ctx, convert.Request{Amount: req.Amount, Unit: req.Unit, Asset: req.Asset, Address: req.Destination})
	if err != nil {
		return r.result(types.StageFailed), r.fail(ctx, err, "")
	}
	r.emit(ctx, r.openingProjection(preview))

	mode := client.OrderFloat
	if req.Unit == types.UnitCoin {
		mode = client.OrderFixed
	}
	price := client.PriceRequest{
		Type:      mode,
		FromCcy:   r.src.ExchangeCode,
		ToCcy:     r.dst.ExchangeCode,
		Direction: client.DirectionTo,
		Amount:    preview.Normalized,
	}

	quote, err := o.exchange.GetQuote(ctx, price)
	if err != nil {
		return r.result(types.StageFailed), r.fail(ctx, err, "")
	}
	if !quote.Actionable() {
		codes := make([]string, len(quote.Errors))
		for i, c := range quote.Errors {
			codes[i] = string(c)
		}
		return r.result(types.StageFailed), r.fail(ctx, apperror.ErrQuoteRejected(codes), quoteRejection(quote, r.src, r.dst))
	}

	// BALANCE_CHECK
	custody, err := o.wallets.ForAsset(ctx, req.UserID, r.src.Code)
	if err != nil {
		return r.result(types.StageFailed), r.fail(ctx, apperror.ErrWallet(err), "")
	}
	if err := o.checkFunds(ctx, custody, r.src.Code, quote.From.Amount); err != nil {
		return r.result(types.StageFailed), r.fail(ctx, err, "")
	}

	// ORDER_CREATED
	order, err := o.exchange.CreateOrder(ctx, client.CreateRequest{PriceRequest: price, ToAddress: req.Destination})
	if err != nil {
		return r.result(types.StageFailed), r.fail(ctx, err, "")
	}
	r.orderID = order.ID
	r.logger = r.logger.With().Str("order_id", order.ID).Logger()
	r.logger.Info().Str("status", string(order.Status)).Str("deposit", string(order.From.Address)).Msg("order created")

	required := order.From.AmountDecimal()
	if !required.IsPositive() {
		r.logger.Error().Str("amount", string(order.From.Amount)).Msg("order carries no deposit amount")
		return r.result(types.StageFailed), r.fail(ctx, apperror.ErrExchange("order has no deposit amount", nil), "")
	}
	cp := &types.Checkpoint{
		OrderID:     order.ID,
		Token:       order.Token,
		UserID:      req.UserID,
		Asset:       r.dst.Code,
		Source:      r.src.Code,
		Destination: req.Destination,
		LastStatus:  string(order.Status),
		FromAmount:  required.String(),
		ToAmount:    amountOf(order.To),
		UpdatedAt:   o.now().UTC(),
	}
	if err := o.checkpoints.Save(ctx, cp); err != nil {
		return r.result(types.StageFailed), r.fail(ctx, apperror.ErrStorage(err), "")
	}
	if o.ledger != nil {
		payment := &types.Payment{
			UserID:     req.UserID,
			OrderID:    order.ID,
			OrderToken: order.Token,
			Amount:     required,
			CreatedAt:  o.now().UTC(),
		}
		if err := o.ledger.Create(ctx, payment); err != nil {
			return r.result(types.StageFailed), r.fail(ctx, apperror.ErrStorage(err), "")
		}
	}

	// BALANCE_RECHECK and TRANSFER_SUBMITTED under the wallet lock
	receipt, err := o.fund(ctx, r, custody, string(order.From.Address), required)
	if err != nil {
		return r.result(types.StageFailed), err
	}

	cp.SourceTxID = receipt.TxID
	cp.UpdatedAt = o.now().UTC()
	if err := o.checkpoints.Save(ctx, cp); err != nil {
		r.logger.Error().Err(err).Msg("failed to checkpoint transfer")
	}
	if o.ledger != nil {
		if err := o.ledger.SetTxID(ctx, order.ID, receipt.TxID); err != nil {
			r.logger.Error().Err(err).Str("txid", receipt.TxID).Msg("failed to record transfer in ledger")
		}
	}

	if receipt.Status == wallet.StatusUnknown {
		unknown := apperror.ErrTransferUnknown(receipt.TxID, errors.New("receipt not observed before timeout"))
		return r.result(types.StageFailed), r.fail(ctx, unknown, "",
			r.txAction(receipt.TxID), resumeAction(order.ID))
	}

	// POLLING
	return o.poll(ctx, r, cp, order)
}

// checkFunds fails with InsufficientFunds when the wallet holds less than required.
func (o *Orchestrator) checkFunds(ctx context.Context, custody wallet.Custody, asset string, required decimal.Decimal) error {
	balance, err := custody.Balance(ctx, asset)
	if err != nil {
		return apperror.ErrWallet(err)
	}
	if balance.LessThan(required) {
		return apperror.ErrInsufficientFunds(balance, required)
	}
	return nil
}

// fund rechecks the balance and submits the transfer while holding the
// wallet lock. A failed or reverted transfer is reported and returned as an
// error; an unobserved outcome is returned as a receipt.
func (o *Orchestrator) fund(ctx context.Context, r *run, custody wallet.Custody, to string, amount decimal.Decimal) (*wallet.Receipt, error) {
	unlock, err := o.locker.Lock(ctx, custody.Address())
	if err != nil {
		return nil, r.fail(ctx, apperror.ErrWallet(err), "")
	}
	defer unlock()

	if err := o.checkFunds(ctx, custody, r.src.Code, amount); err != nil {
		if r.orderID != "" {
			r.logger.Warn().Msg("order abandoned unfunded")
		}
		return nil, r.fail(ctx, err, "")
	}

	r.emit(ctx, r.projection(types.StageTransferSubmitted, "📡 Broadcasting your transaction...", "Please allow us a few seconds!", types.ColorBlue))

	receipt, err := custody.Transfer(ctx, r.src.Code, to, amount)
	if err != nil {
		return nil, r.fail(ctx, apperror.ErrTransferFailure(err), "")
	}
	r.sourceTxID = receipt.TxID
	r.logger.Info().Str("txid", receipt.TxID).Str("outcome", receipt.Status.String()).Msg("transfer submitted")

	if receipt.Status == wallet.StatusFailed {
		return nil, r.fail(ctx, apperror.ErrTransferFailure(fmt.Errorf("transaction %s reverted", receipt.TxID)), "",
			r.txAction(receipt.TxID))
	}
	return receipt, nil
}

func (r *run) openingProjection(preview *convert.Preview) types.StatusProjection {
	lines := []string{"Please allow us a few seconds!"}
	if preview.Estimate {
		lines = append(lines, "", fmt.Sprintf("%s %s is about %s %s.",
			preview.Request.Amount, preview.Request.Unit, preview.Normalized, r.dst.Code))
	}
	if preview.Address == address.Invalid {
		lines = append(lines, "", fmt.Sprintf("⚠️ `%s` does not look like a valid %s address.", r.destination, r.dst.Name))
	}
	return r.projection(types.StageQuoting, "📡 Initiating a conversion order...", strings.Join(lines, "\n"), types.ColorBlue)
}

// DirectTransfer sends the custody asset itself, without the exchange.
func (o *Orchestrator) DirectTransfer(ctx context.Context, req types.SwapRequest, sink notify.Sink) (*Result, error) {
	err := normalize(&req)
	r := o.newRun(req.UserID, req.Asset, req.Asset, req.Destination, sink)
	if err != nil {
		return r.result(types.StageFailed), r.fail(ctx, apperror.ErrValidation(err.Error()), "")
	}
	if r.dst.Custody == "" {
		return r.result(types.StageFailed), r.fail(ctx, apperror.ErrValidation(r.dst.Code+" is not held in custody"), "")
	}
	return o.directTransfer(ctx, r, req)
}

func (o *Orchestrator) directTransfer(ctx context.Context, r *run, req types.SwapRequest) (*Result, error) {
	preview, err := o.converter.Preview(ctx, convert.Request{Amount: req.Amount, Unit: req.Unit, Asset: r.dst.Code, Address: req.Destination})
	if err != nil {
		return r.result(types.StageFailed), r.fail(ctx, err, "")
	}
	if preview.Address == address.Invalid {
		r.emit(ctx, r.openingProjection(preview))
	}

	custody, err := o.wallets.ForAsset(ctx, req.UserID, r.dst.Code)
	if err != nil {
		return r.result(types.StageFailed), r.fail(ctx, apperror.ErrWallet(err), "")
	}

	receipt, err := o.fund(ctx, r, custody, req.Destination, preview.Normalized)
	if err != nil {
		return r.result(types.StageFailed), err
	}
	if receipt.Status == wallet.StatusUnknown {
		unknown := apperror.ErrTransferUnknown(receipt.TxID, errors.New("receipt not observed before timeout"))
		return r.result(types.StageFailed), r.fail(ctx, unknown, "", r.txAction(receipt.TxID))
	}

	p := r.projection(types.StageDone, "✅ Sent "+r.dst.Name,
		fmt.Sprintf("%s %s -> `%s`", preview.Normalized, r.dst.Code, req.Destination), types.ColorGreen)
	p.Actions = []types.Action{
		{Kind: types.ActionCopy, Label: LabelCopyTransaction, Value: receipt.TxID},
		r.txAction(receipt.TxID),
	}
	r.emit(ctx, p)
	return r.result(types.StageDone), nil
}

// ResolveEmergency answers an order in EMERGENCY. A refund without an address
// goes back to the user's custody wallet.
func (o *Orchestrator) ResolveEmergency(ctx context.Context, orderID string, choice client.EmergencyChoice, refundAddress string) (bool, error) {
	cp, err := o.checkpoints.Get(ctx, orderID)
	if err != nil {
		return false, apperror.ErrStorage(err)
	}
	if cp == nil {
		return false, apperror.ErrOrderNotFound(orderID)
	}
	if choice == client.ChoiceRefund && refundAddress == "" {
		custody, err := o.wallets.ForAsset(ctx, cp.UserID, cp.Source)
		if err != nil {
			return false, apperror.ErrWallet(err)
		}
		refundAddress = custody.Address()
	}

	ok, err := o.exchange.ResolveEmergency(ctx, cp.OrderID, cp.Token, choice, refundAddress)
	if err != nil {
		return false, err
	}
	o.logger.Info().Str("order_id", orderID).Str("choice", string(choice)).Bool("accepted", ok).Msg("emergency resolution sent")
	return ok, nil
}

// Balance reads the user's custody holdings with a USD estimate.
func (o *Orchestrator) Balance(ctx context.Context, userID string) (*BalanceReport, error) {
	custody, err := o.wallets.ForAsset(ctx, userID, o.opts.Source)
	if err != nil {
		return nil, apperror.ErrWallet(err)
	}

	rep := &BalanceReport{UserID: userID, Address: custody.Address(), Chain: custody.Chain()}
	for _, asset := range o.balanceAssets(custody.Chain()) {
		amount, err := custody.Balance(ctx, asset)
		if err != nil {
			return nil, apperror.ErrWallet(err)
		}
		h := Holding{Asset: asset, Amount: amount}
		if usd, ok := o.usdValue(ctx, asset, amount); ok {
			h.USD = &usd
		}
		rep.Holdings = append(rep.Holdings, h)
	}
	return rep, nil
}

func (o *Orchestrator) balanceAssets(chain types.Chain) []string {
	if len(o.opts.BalanceAssets) > 0 {
		return o.opts.BalanceAssets
	}
	if native := chain.NativeAsset(); native != "" && native != o.opts.Source {
		return []string{native, o.opts.Source}
	}
	return []string{o.opts.Source}
}

func (o *Orchestrator) usdValue(ctx context.Context, asset string, amount decimal.Decimal) (decimal.Decimal, bool) {
	cur, ok := types.LookupCurrency(asset)
	if !ok {
		return decimal.Zero, false
	}
	if cur.Stable {
		return amount, true
	}
	if o.market == nil {
		return decimal.Zero, false
	}
	price, err := o.market.Price(ctx, cur.Coin)
	if err != nil {
		o.logger.Warn().Err(err).Str("coin", cur.Coin).Msg("no price for balance estimate")
		return decimal.Zero, false
	}
	return amount.Mul(price), true
}
