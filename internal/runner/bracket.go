package runner

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"

	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/config"
	"reversion_bot/pkg/logger"
	"reversion_bot/pkg/metrics"
)

const (
	legEntry      = "entry"
	legStop       = "stop_loss"
	legTakeProfit = "take_profit"
)

// Bracket is the outcome of a placement. Empty ids mark legs the exchange refused.
type Bracket struct {
	EntryOrderID      models.OrderID
	StopOrderID       models.OrderID
	TakeProfitOrderID models.OrderID
	Quantity          float64
}

// BracketPlacer submits entry, stop-loss and take-profit in that order.
type BracketPlacer struct {
	orders    OrderGateway
	hedgeMode bool
	clientID  func(leg string) string
}

func NewBracketPlacer(cfg *config.Config, orders OrderGateway) *BracketPlacer {
	return &BracketPlacer{
		orders:    orders,
		hedgeMode: cfg.Binance.HedgeMode,
		clientID:  newClientID,
	}
}

func newClientID(leg string) string {
	prefix := map[string]string{legEntry: "en", legStop: "sl", legTakeProfit: "tp"}[leg]
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Place returns a *PlacementFailure when the entry is refused (no protective leg is attempted)
// and a *PartialBracketFailure together with the partial Bracket when a protective leg is refused.
func (p *BracketPlacer) Place(ctx context.Context, sig models.Signal, qty float64) (Bracket, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "bracket.place")
	defer span.Finish()
	span.SetTag("symbol", sig.Symbol)
	span.SetTag("side", string(sig.Side))

	positionSide := models.PositionSideBoth
	if p.hedgeMode {
		positionSide = models.HedgeSide(sig.Side)
	}
	entrySide := models.EntrySide(sig.Side)
	exitSide := models.EntrySide(sig.Side.Opposite())

	entryID, err := p.submit(ctx, legEntry, models.OrderRequest{
		Symbol:       sig.Symbol,
		Side:         entrySide,
		Type:         models.OrderTypeLimit,
		PositionSide: positionSide,
		Quantity:     qty,
		Price:        sig.EntryPrice,
	})
	if err != nil {
		span.SetTag("error", true)
		return Bracket{}, &PlacementFailure{Symbol: sig.Symbol, Err: err}
	}
	logger.Info("[ORDER] %s LIMIT %s %s qty=%g @ %g id=%s", sig.Symbol, entrySide, positionSide, qty, sig.EntryPrice, entryID)

	out := Bracket{EntryOrderID: entryID, Quantity: qty}
	var partial PartialBracketFailure

	protect := func(leg string, typ models.OrderType, trigger float64) models.OrderID {
		id, err := p.submit(ctx, leg, models.OrderRequest{
			Symbol:       sig.Symbol,
			Side:         exitSide,
			Type:         typ,
			PositionSide: positionSide,
			Quantity:     qty,
			StopPrice:    trigger,
			// hedge mode rejects reduceOnly, the position side already scopes the order
			ReduceOnly: !p.hedgeMode,
		})
		if err != nil {
			logger.Error("[ORDER] %s %s @ %g failed: %v", sig.Symbol, typ, trigger, err)
			partial.Legs = append(partial.Legs, leg)
			partial.Errs = append(partial.Errs, err)
			return ""
		}
		logger.Info("[ORDER] %s %s %s @ %g id=%s", sig.Symbol, typ, exitSide, trigger, id)
		return id
	}
	out.StopOrderID = protect(legStop, models.OrderTypeStopMarket, sig.StopPrice)
	out.TakeProfitOrderID = protect(legTakeProfit, models.OrderTypeTakeProfitMarket, sig.TakeProfitPrice)

	if len(partial.Legs) > 0 {
		span.SetTag("error", true)
		partial.Symbol = sig.Symbol
		return out, &partial
	}
	return out, nil
}

func (p *BracketPlacer) submit(ctx context.Context, leg string, req models.OrderRequest) (models.OrderID, error) {
	req.ClientOrderID = p.clientID(leg)
	id, err := p.orders.PlaceOrder(ctx, req)
	if err == nil && id.Empty() {
		err = errEmptyOrderID
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.Orders.WithLabelValues(leg, result).Inc()
	return id, err
}
