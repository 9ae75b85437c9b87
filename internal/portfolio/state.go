package portfolio

import (
	"fmt"
	"math"

	enginerrors "github.com/jwkjng/ai-hedge-fund-opt/internal/errors"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// cashEpsilon absorbs float rounding when comparing trade cost to cash.
const cashEpsilon = 1e-9

// State is the single cross-day mutable entity of a backtest run. The
// backtest engine owns it exclusively and mutates it only through Apply,
// one decision at a time. Cash never goes negative; callers clamp
// affordability with MaxAffordableQty before committing.
type State struct {
	cash        float64
	positions   map[string]int64   // signed shares: positive long, negative short
	costBasis   map[string]float64 // average entry price per open position
	realizedPnL float64
}

func NewState(startingCash float64) *State {
	return &State{
		cash:      startingCash,
		positions: make(map[string]int64),
		costBasis: make(map[string]float64),
	}
}

func (s *State) Cash() float64        { return s.cash }
func (s *State) RealizedPnL() float64 { return s.realizedPnL }

// Position returns signed shares for a ticker (0 when flat).
func (s *State) Position(ticker string) int64 {
	return s.positions[ticker]
}

// CostBasis returns the average entry price for a ticker's open position.
func (s *State) CostBasis(ticker string) float64 {
	return s.costBasis[ticker]
}

// Snapshot returns a deep copy safe to hand to producers and reports.
func (s *State) Snapshot() types.PortfolioSnapshot {
	positions := make(map[string]int64, len(s.positions))
	for t, q := range s.positions {
		positions[t] = q
	}
	basis := make(map[string]float64, len(s.costBasis))
	for t, b := range s.costBasis {
		basis[t] = b
	}
	return types.PortfolioSnapshot{Cash: s.cash, Positions: positions, CostBasis: basis}
}

// Value marks all open positions to the given closes. Signed position
// quantities make short liabilities subtract naturally. Tickers missing a
// price are marked at cost basis, the last price the engine accepted a
// trade at.
func (s *State) Value(closes map[string]float64) float64 {
	value := s.cash
	for ticker, qty := range s.positions {
		if qty == 0 {
			continue
		}
		price, ok := closes[ticker]
		if !ok {
			price = s.costBasis[ticker]
		}
		value += float64(qty) * price
	}
	return value
}

// MaxAffordableQty returns the largest quantity of the decision's action
// that the current cash can support at the given price. Sells and shorts
// raise cash so they are never cash-capped.
func (s *State) MaxAffordableQty(action types.TradeAction, price float64) int64 {
	switch action {
	case types.ActionBuy, types.ActionCover:
		if price <= 0 {
			return 0
		}
		return int64(math.Floor((s.cash + cashEpsilon) / price))
	default:
		return math.MaxInt64
	}
}

// Apply commits one trade decision at the given execution price. It returns
// ErrCashInvariant if the decision would drive cash negative and
// ErrDataGap-free validation errors for impossible quantities; both indicate
// an engine defect, not a runtime condition, because the engine clamps
// before committing.
func (s *State) Apply(d types.TradeDecision, price float64) error {
	if d.Action == types.ActionHold {
		if d.Quantity != 0 {
			return fmt.Errorf("hold with quantity %d", d.Quantity)
		}
		return nil
	}
	if d.Quantity <= 0 {
		return fmt.Errorf("%s with non-positive quantity %d", d.Action, d.Quantity)
	}
	if price <= 0 {
		return fmt.Errorf("%s %s at non-positive price %.4f", d.Action, d.Ticker, price)
	}

	qty := d.Quantity
	cost := float64(qty) * price
	position := s.positions[d.Ticker]

	switch d.Action {
	case types.ActionBuy:
		if position < 0 {
			return fmt.Errorf("buy %s while short %d shares, expected cover", d.Ticker, -position)
		}
		if cost > s.cash+cashEpsilon {
			return fmt.Errorf("buy %d %s for %.2f with %.2f cash: %w",
				qty, d.Ticker, cost, s.cash, enginerrors.ErrCashInvariant)
		}
		s.cash -= cost
		s.costBasis[d.Ticker] = blendBasis(s.costBasis[d.Ticker], position, price, qty)
		s.positions[d.Ticker] = position + qty

	case types.ActionSell:
		if qty > position {
			return fmt.Errorf("sell %d %s with only %d held", qty, d.Ticker, position)
		}
		s.cash += cost
		s.realizedPnL += float64(qty) * (price - s.costBasis[d.Ticker])
		s.setPosition(d.Ticker, position-qty)

	case types.ActionShort:
		if position > 0 {
			return fmt.Errorf("short %s while long %d shares, expected sell", d.Ticker, position)
		}
		// Short proceeds are credited; the liability is carried in the
		// signed position and marked to market by Value.
		s.cash += cost
		s.costBasis[d.Ticker] = blendBasis(s.costBasis[d.Ticker], -position, price, qty)
		s.positions[d.Ticker] = position - qty

	case types.ActionCover:
		if position >= 0 {
			return fmt.Errorf("cover %s with no short position", d.Ticker)
		}
		if qty > -position {
			return fmt.Errorf("cover %d %s with only %d short", qty, d.Ticker, -position)
		}
		if cost > s.cash+cashEpsilon {
			return fmt.Errorf("cover %d %s for %.2f with %.2f cash: %w",
				qty, d.Ticker, cost, s.cash, enginerrors.ErrCashInvariant)
		}
		s.cash -= cost
		s.realizedPnL += float64(qty) * (s.costBasis[d.Ticker] - price)
		s.setPosition(d.Ticker, position+qty)

	default:
		return fmt.Errorf("unknown action %v", d.Action)
	}

	if s.cash < -cashEpsilon {
		return fmt.Errorf("cash %.6f after %s %s: %w", s.cash, d.Action, d.Ticker, enginerrors.ErrCashInvariant)
	}
	if s.cash < 0 {
		s.cash = 0
	}
	return nil
}

func (s *State) setPosition(ticker string, qty int64) {
	if qty == 0 {
		delete(s.positions, ticker)
		delete(s.costBasis, ticker)
		return
	}
	s.positions[ticker] = qty
}

// blendBasis extends an average entry price with a new lot. existing is the
// absolute size of the position the basis covers.
func blendBasis(basis float64, existing int64, price float64, added int64) float64 {
	if existing <= 0 {
		return price
	}
	total := existing + added
	return (basis*float64(existing) + price*float64(added)) / float64(total)
}
