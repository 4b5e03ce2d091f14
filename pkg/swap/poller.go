package swap

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DollarNoob/Pay/pkg/apperror"
	"github.com/DollarNoob/Pay/pkg/client"
	"github.com/DollarNoob/Pay/pkg/notify"
	"github.com/DollarNoob/Pay/pkg/types"
)

// observation is what makes two consecutive reads of an order different to the user.
type observation struct {
	status        client.OrderStatus
	confirmations int
}

func observe(o *client.Order) observation {
	return observation{status: o.Status, confirmations: o.From.Tx.Confirmations.Int()}
}

// Resume re-enters polling for a checkpointed order. An order already known to
// be terminal is projected again without contacting the exchange.
func (o *Orchestrator) Resume(ctx context.Context, orderID string, sink notify.Sink) (*Result, error) {
	cp, err := o.checkpoints.Get(ctx, orderID)
	if err != nil {
		r := o.newRun("", "", "", "", sink)
		r.orderID = orderID
		return r.result(types.StageFailed), r.fail(ctx, apperror.ErrStorage(err), "")
	}
	if cp == nil {
		r := o.newRun("", "", "", "", sink)
		r.orderID = orderID
		return r.result(types.StageFailed), r.fail(ctx, apperror.ErrOrderNotFound(orderID), "")
	}

	r := o.newRun(cp.UserID, cp.Source, cp.Asset, cp.Destination, sink)
	r.orderID = cp.OrderID
	r.sourceTxID = cp.SourceTxID
	r.logger = r.logger.With().Str("order_id", cp.OrderID).Logger()

	last := checkpointOrder(cp)
	if last.Status.Terminal() {
		r.emit(ctx, r.orderProjection(last))
		res := r.result(stageFor(last.Status))
		res.Status = last.Status
		res.Order = last
		return res, nil
	}
	r.logger.Info().Str("last_status", cp.LastStatus).Msg("resuming order")
	return o.poll(ctx, r, cp, last)
}

// poll reads the order until it is terminal, a read fails, or the attempt or
// deadline bound runs out. Only the first and the last case return a nil error.
func (o *Orchestrator) poll(ctx context.Context, r *run, cp *types.Checkpoint, last *client.Order) (*Result, error) {
	pollCtx, cancel := context.WithTimeout(ctx, o.opts.Deadline)
	defer cancel()

	var seen *observation
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer.Reset(o.opts.PollInterval)
			select {
			case <-pollCtx.Done():
				if ctx.Err() != nil {
					return r.result(types.StagePolling), ctx.Err()
				}
				return o.stalled(ctx, r, last)
			case <-timer.C:
			}
		}

		order, err := o.exchange.GetOrder(pollCtx, cp.OrderID, cp.Token)
		if err != nil {
			if ctx.Err() != nil {
				return r.result(types.StagePolling), ctx.Err()
			}
			if pollCtx.Err() != nil {
				return o.stalled(ctx, r, last)
			}
			r.emit(ctx, r.degradedProjection(last))
			degraded := apperror.ErrPollingDegraded(err)
			r.logger.Warn().Err(err).Int("attempt", attempt).Msg("order status read failed")
			res := r.result(types.StagePolling)
			res.Order = last
			if last != nil {
				res.Status = last.Status
			}
			return res, degraded
		}
		if last != nil && order.Status.Rank() < last.Status.Rank() {
			r.logger.Warn().
				Str("status", string(order.Status)).
				Str("accepted", string(last.Status)).
				Int("attempt", attempt).
				Msg("stale order status ignored")
			continue
		}
		last = order

		if obs := observe(order); seen == nil || *seen != obs {
			seen = &obs
			r.emit(ctx, r.orderProjection(order))
			o.checkpoint(ctx, r, cp, order)
		}

		if order.Status.Terminal() {
			return o.finish(ctx, r, order), nil
		}
	}
	return o.stalled(ctx, r, last)
}

func (o *Orchestrator) checkpoint(ctx context.Context, r *run, cp *types.Checkpoint, order *client.Order) {
	if cp.LastStatus == string(order.Status) && cp.PayoutTxID == string(order.To.Tx.ID) {
		return
	}
	cp.LastStatus = string(order.Status)
	cp.FromAmount = amountOf(order.From)
	cp.ToAmount = amountOf(order.To)
	cp.PayoutTxID = string(order.To.Tx.ID)
	cp.UpdatedAt = o.now().UTC()
	if err := o.checkpoints.Save(ctx, cp); err != nil {
		r.logger.Error().Err(err).Str("status", cp.LastStatus).Msg("failed to checkpoint order status")
	}
}

func (o *Orchestrator) finish(ctx context.Context, r *run, order *client.Order) *Result {
	r.logger.Info().Str("status", string(order.Status)).Msg("order finished")
	if order.Status == client.StatusDone && o.ledger != nil {
		amount := order.To.AmountDecimal()
		if txAmount, err := decimalOf(order.To.Tx.Amount); err == nil {
			amount = txAmount
		}
		if err := o.ledger.MarkExchanged(ctx, order.ID, string(order.To.Tx.ID), r.dst.Code, amount, o.now().UTC()); err != nil {
			r.logger.Error().Err(err).Msg("failed to record payout in ledger")
		}
	}
	res := r.result(stageFor(order.Status))
	res.Status = order.Status
	res.Order = order
	return res
}

// stalled ends a polling run that ran out of attempts or time. The order stays
// resumable.
func (o *Orchestrator) stalled(ctx context.Context, r *run, last *client.Order) (*Result, error) {
	r.logger.Info().Msg("polling bound reached, order left resumable")
	r.emit(ctx, r.stalledProjection(last))
	res := r.result(types.StagePolling)
	res.Order = last
	if last != nil {
		res.Status = last.Status
	}
	return res, nil
}

var errEmptyAmount = errors.New("empty amount")

func decimalOf(t client.Text) (decimal.Decimal, error) {
	if t == "" {
		return decimal.Zero, errEmptyAmount
	}
	return decimal.NewFromString(string(t))
}
