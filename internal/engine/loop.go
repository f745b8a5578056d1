package engine

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/prabhatpushp/backtesting/internal/core"
	"github.com/prabhatpushp/backtesting/internal/strategy"
)

// Outcome is the raw product of a run: the final account state and the full
// trade and equity ledgers. Metric derivation lives in the backtest package.
type Outcome struct {
	FinalEquity float64
	Trades      []Trade
	EquityCurve []EquityPoint
	// Bankrupt is set when equity hit zero and the run terminated early.
	// Bankruptcy is a defined outcome, not an error: the ledgers above
	// cover everything up to the terminating bar.
	Bankrupt        bool
	BarsProcessed   int
	OrdersSubmitted int
	OrdersRejected  int
	OrdersExpired   int
}

// Engine drives one deterministic simulation over one price series. It owns
// the series, order book and portfolio exclusively for the duration of the
// run; independent runs never share state.
type Engine struct {
	cfg    Config
	series *core.Series
	strat  strategy.Strategy
	log    *zap.Logger
}

// New validates the configuration and builds an engine. A nil logger
// disables logging.
func New(cfg Config, series *core.Series, strat strategy.Strategy, log *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if series == nil || series.Len() == 0 {
		return nil, core.ErrNoData
	}
	if strat == nil {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("strategy is required"))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, series: series, strat: strat, log: log}, nil
}

// Run walks the series one bar at a time. Per bar it resolves pending
// orders against that bar, marks the portfolio to market, invokes the
// strategy on the history visible so far and submits the resulting intents
// as orders for the next bar. The loop holds no wall-clock, randomness or
// I/O, so identical inputs produce identical outcomes.
//
// Cancellation is honored between bars; the partial outcome up to the last
// completed bar is returned together with the context error.
func (e *Engine) Run(ctx context.Context) (*Outcome, error) {
	bk := &book{}
	port := newPortfolio(e.cfg.InitialCash, e.cfg.Commission)
	out := &Outcome{
		EquityCurve: make([]EquityPoint, 0, e.series.Len()),
	}
	n := e.series.Len()

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			e.finish(out, port)
			return out, ctx.Err()
		default:
		}

		bar, err := e.series.At(i)
		if err != nil {
			e.finish(out, port)
			return out, err
		}

		// Entries that would fill on the final bar get liquidated the
		// same instant, so they are cancelled instead.
		if i == n-1 {
			bk.cancelEntries()
		}

		// 1. Resolve pending orders FIFO against this bar, then expire
		// the ones that ran out of pending-bars budget.
		for _, o := range bk.open(i) {
			e.resolve(o, bar, i, port, out)
		}
		for _, o := range bk.sweep(i, e.cfg.MaxPendingBars) {
			out.OrdersExpired++
			e.log.Debug("order expired",
				zap.Int("order_id", o.ID),
				zap.Int("submitted_at", o.SubmittedAt),
				zap.Int("bar", i))
		}

		// Protective stop/target levels attached to the position act as
		// resting exits. The stop is checked first: when both levels sit
		// inside one bar the loss is taken, which is the conservative
		// reading of an ambiguous bar.
		e.resolveProtective(bar, i, port, out)

		// 2. Mark to market.
		eq := port.equity(bar.Close)
		out.EquityCurve = append(out.EquityCurve, EquityPoint{
			Index:  i,
			Time:   bar.Time,
			Cash:   port.cash,
			Equity: eq,
		})
		out.BarsProcessed = i + 1

		// 4a. Bankruptcy check precedes the strategy: a dead account
		// takes no more decisions.
		if eq <= 0 {
			e.log.Info("bankruptcy termination",
				zap.Int("bar", i),
				zap.Float64("equity", eq))
			e.forceClose(bar, i, port, out, "bankruptcy liquidation")
			bk.cancelAll()
			out.Bankrupt = true
			e.finish(out, port)
			return out, nil
		}

		// 3. Let the strategy see history up to and including this bar.
		if i >= e.cfg.WarmupPeriod {
			e.decide(bar, i, bk, port, out)
		}

		// 4b. Final bar: liquidate whatever is still open at the last
		// close so the run ends flat.
		if i == n-1 {
			e.forceClose(bar, i, port, out, "end of data liquidation")
			bk.cancelAll()
		}
	}

	e.finish(out, port)
	return out, nil
}

// resolve attempts to fill one pending order against the current bar.
func (e *Engine) resolve(o *Order, bar core.Bar, i int, port *portfolio, out *Outcome) {
	if o.Reduce {
		// A reduce order is only meaningful against the position it was
		// issued for; a position opened on this very bar is not it.
		if port.position == nil || port.position.Side != o.Side || port.position.EntryIndex >= i {
			o.Status = OrderCancelled
			return
		}
	}

	price, ok := fillPrice(o, bar, e.cfg.SlippageFraction)
	if !ok {
		return
	}

	if o.Reduce {
		trade := port.close(o.Fraction, price, i, bar.Time, o.Reason)
		o.Status = OrderFilled
		o.FillIndex = i
		o.FillPrice = price
		e.log.Debug("close fill",
			zap.Int("order_id", o.ID),
			zap.Int("bar", i),
			zap.Float64("price", price),
			zap.Float64("pnl", trade.PnL))
		return
	}

	if pos := port.position; pos != nil {
		if pos.Side == o.Side {
			// Same-direction entry while holding: defined no-op.
			o.Status = OrderCancelled
			return
		}
		if pos.EntryIndex >= i {
			// Cannot reverse a position opened on this same bar; exits
			// must land strictly after entries.
			o.Status = OrderCancelled
			return
		}
		// Reversal: one fill price, two ledger effects.
		port.close(1, price, i, bar.Time, "reversal")
	}

	if err := port.open(o.Side, price, o.Size, i, bar.Time); err != nil {
		o.Status = OrderCancelled
		out.OrdersRejected++
		e.log.Warn("entry fill rejected",
			zap.Int("order_id", o.ID),
			zap.Int("bar", i),
			zap.Error(err))
		return
	}
	o.Status = OrderFilled
	o.FillIndex = i
	o.FillPrice = price
	e.log.Debug("entry fill",
		zap.Int("order_id", o.ID),
		zap.Int("bar", i),
		zap.String("side", string(o.Side)),
		zap.Float64("price", price),
		zap.Float64("size", o.Size))
}

// resolveProtective converts a touched stop or target level into an exit
// fill on this bar. Levels never fire on the position's own entry bar.
func (e *Engine) resolveProtective(bar core.Bar, i int, port *portfolio, out *Outcome) {
	pos := port.position
	if pos == nil || pos.EntryIndex >= i {
		return
	}

	if pos.Stop > 0 {
		stopOrder := &Order{Side: pos.Side, Kind: core.OrderStop, Price: pos.Stop, Reduce: true, Fraction: 1}
		if price, ok := fillPrice(stopOrder, bar, e.cfg.SlippageFraction); ok {
			port.close(1, price, i, bar.Time, "stop loss")
			return
		}
	}
	if pos.Target > 0 {
		targetOrder := &Order{Side: pos.Side, Kind: core.OrderLimit, Price: pos.Target, Reduce: true, Fraction: 1}
		if price, ok := fillPrice(targetOrder, bar, e.cfg.SlippageFraction); ok {
			port.close(1, price, i, bar.Time, "profit target")
		}
	}
}

// decide invokes the strategy on the visible window and submits its intents.
// Malformed intents are rejected and logged; the simulation continues.
func (e *Engine) decide(bar core.Bar, i int, bk *book, port *portfolio, out *Outcome) {
	window, err := e.series.WindowUpTo(i)
	if err != nil {
		return
	}

	dctx := strategy.DecisionContext{
		Symbol: e.series.Symbol(),
		Bars:   window,
		Index:  i,
		Cash:   port.cash,
		Equity: port.equity(bar.Close),
	}
	if pos := port.position; pos != nil {
		dctx.Position = &strategy.PositionView{
			Side:       pos.Side,
			EntryPrice: pos.EntryPrice,
			Size:       pos.Size,
			EntryIndex: pos.EntryIndex,
			Stop:       pos.Stop,
			Target:     pos.Target,
			Unrealized: pos.Unrealized(bar.Close),
		}
	}

	intents, err := e.strat.Decide(dctx)
	if err != nil {
		e.log.Warn("strategy decision failed",
			zap.String("strategy", e.strat.Name()),
			zap.Int("bar", i),
			zap.Error(core.WrapError(core.ErrStrategyFailed, err)))
		return
	}

	before := len(bk.pending)
	for _, intent := range intents {
		if err := e.submitIntent(intent, bar, i, bk, port); err != nil {
			out.OrdersRejected++
			e.log.Warn("intent rejected",
				zap.String("type", string(intent.Type)),
				zap.Int("bar", i),
				zap.Error(err))
		}
	}
	out.OrdersSubmitted += len(bk.pending) - before
}

// submitIntent translates one strategy intent into engine state: protective
// level adjustments apply immediately, everything else becomes an order
// resolving no earlier than the next bar.
func (e *Engine) submitIntent(intent strategy.Intent, bar core.Bar, i int, bk *book, port *portfolio) error {
	switch intent.Type {
	case strategy.IntentNoOp:
		return nil

	case strategy.IntentSetStop, strategy.IntentSetTarget:
		if port.position == nil {
			return nil // nothing to protect
		}
		if intent.Level <= 0 || math.IsNaN(intent.Level) || math.IsInf(intent.Level, 0) {
			return core.WrapError(core.ErrInvalidOrder,
				errors.New("protective level must be a positive finite price"))
		}
		if intent.Type == strategy.IntentSetStop {
			port.position.Stop = intent.Level
		} else {
			port.position.Target = intent.Level
		}
		return nil

	case strategy.IntentClose:
		if port.position == nil {
			return nil // nothing to close
		}
		return bk.submit(&Order{
			Side:        port.position.Side,
			Kind:        core.OrderMarket,
			Reduce:      true,
			Fraction:    intent.Fraction,
			SubmittedAt: i,
			Reason:      intent.Reason,
		})

	case strategy.IntentOpenLong, strategy.IntentOpenShort:
		side := core.SideLong
		if intent.Type == strategy.IntentOpenShort {
			side = core.SideShort
		}
		size := intent.Size
		if size == 0 && intent.SizePct > 0 {
			if bar.Close > 0 {
				size = port.equity(bar.Close) * intent.SizePct / bar.Close
			}
		}
		kind := intent.Kind
		if kind == "" {
			kind = core.OrderMarket
		}
		// Opening while flat is bounded by cash up front; a reversal is
		// re-checked at fill time after the close has settled.
		if port.position == nil && size > 0 {
			est := size * bar.Close
			if est+e.cfg.Commission.Charge(est) > port.cash {
				return core.WrapError(core.ErrInvalidOrder,
					errors.New("order notional exceeds available cash"))
			}
		}
		return bk.submit(&Order{
			Side:        side,
			Kind:        kind,
			Price:       intent.Price,
			Size:        size,
			SubmittedAt: i,
			Reason:      intent.Reason,
		})
	}

	return core.WrapError(core.ErrInvalidOrder,
		errors.New("unknown intent type "+string(intent.Type)))
}

// forceClose liquidates any open position at the bar's close and rewrites
// the bar's equity point to the settled state, so the curve's final entry
// matches the reported final equity.
func (e *Engine) forceClose(bar core.Bar, i int, port *portfolio, out *Outcome, reason string) {
	if port.position == nil {
		return
	}
	trade := port.close(1, bar.Close, i, bar.Time, reason)
	e.log.Info("forced liquidation",
		zap.Int("bar", i),
		zap.Float64("price", bar.Close),
		zap.Float64("pnl", trade.PnL))
	if len(out.EquityCurve) > 0 && out.EquityCurve[len(out.EquityCurve)-1].Index == i {
		out.EquityCurve[len(out.EquityCurve)-1].Cash = port.cash
		out.EquityCurve[len(out.EquityCurve)-1].Equity = port.cash
	}
}

// finish copies the portfolio ledgers into the outcome.
func (e *Engine) finish(out *Outcome, port *portfolio) {
	out.Trades = port.trades
	if last := len(out.EquityCurve); last > 0 {
		out.FinalEquity = out.EquityCurve[last-1].Equity
	} else {
		out.FinalEquity = port.cash
	}
}
