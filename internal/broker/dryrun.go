package broker

import (
	"context"
	"fmt"
	"log/slog"

	"apcacli/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*DryRunBroker)(nil)

// DryRunBroker reads through to a live broker but routes every mutation to a
// simulator, so the result of a command can be inspected without sending
// anything.
type DryRunBroker struct {
	Broker
	sim *SimulatorBroker
	log *slog.Logger
}

// NewDryRunBroker wraps live.
func NewDryRunBroker(live Broker, log *slog.Logger) *DryRunBroker {
	if log == nil {
		log = slog.Default()
	}
	return &DryRunBroker{
		Broker: live,
		sim:    NewSimulatorBroker(),
		log:    log.With("component", "dry-run"),
	}
}

// Name returns the wrapped broker's name with a dry-run marker.
func (b *DryRunBroker) Name() string {
	return b.Broker.Name() + " (dry run)"
}

func (b *DryRunBroker) UpdateAccountConfig(ctx context.Context, upd domain.AccountConfigUpdate) (*domain.AccountConfig, error) {
	cur, err := b.Broker.GetAccountConfig(ctx)
	if err != nil {
		return nil, err
	}
	b.sim.mu.Lock()
	b.sim.config = *cur
	b.sim.mu.Unlock()
	b.log.Info("not updating account configuration")
	return b.sim.UpdateAccountConfig(ctx, upd)
}

func (b *DryRunBroker) SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	b.log.Info("not submitting order", "symbol", req.Symbol, "side", req.Side)
	return b.sim.SubmitOrder(ctx, req)
}

func (b *DryRunBroker) ChangeOrder(ctx context.Context, orderID string, chg domain.OrderChange) (*domain.Order, error) {
	if _, err := b.mirrorOrder(ctx, orderID); err != nil {
		return nil, err
	}
	b.log.Info("not replacing order", "id", orderID)
	return b.sim.ChangeOrder(ctx, orderID, chg)
}

func (b *DryRunBroker) CancelOrder(ctx context.Context, orderID string) error {
	if _, err := b.mirrorOrder(ctx, orderID); err != nil {
		return err
	}
	b.log.Info("not canceling order", "id", orderID)
	return b.sim.CancelOrder(ctx, orderID)
}

func (b *DryRunBroker) CancelAllOrders(ctx context.Context) error {
	b.log.Info("not canceling open orders")
	return nil
}

func (b *DryRunBroker) ClosePosition(ctx context.Context, symbol string, req domain.ClosePositionRequest) (*domain.Order, error) {
	p, err := b.Broker.GetPosition(ctx, symbol)
	if err != nil {
		return nil, err
	}
	b.sim.AddPosition(*p)
	b.log.Info("not closing position", "symbol", symbol)
	return b.sim.ClosePosition(ctx, symbol, req)
}

func (b *DryRunBroker) CloseAllPositions(ctx context.Context, cancelOrders bool) ([]domain.Order, error) {
	positions, err := b.Broker.ListPositions(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range positions {
		b.sim.AddPosition(p)
	}
	b.log.Info("not closing positions", "count", len(positions))
	return b.sim.CloseAllPositions(ctx, false)
}

func (b *DryRunBroker) CreateWatchlist(ctx context.Context, name string, symbols []string) (*domain.Watchlist, error) {
	b.log.Info("not creating watchlist", "name", name)
	return b.sim.CreateWatchlist(ctx, name, symbols)
}

func (b *DryRunBroker) AddToWatchlist(ctx context.Context, id, symbol string) (*domain.Watchlist, error) {
	w, err := b.Broker.GetWatchlist(ctx, id)
	if err != nil {
		return nil, err
	}
	w.Assets = append(w.Assets, domain.Asset{Symbol: symbol})
	b.log.Info("not adding to watchlist", "id", id, "symbol", symbol)
	return w, nil
}

func (b *DryRunBroker) RemoveFromWatchlist(ctx context.Context, id, symbol string) error {
	if _, err := b.Broker.GetWatchlist(ctx, id); err != nil {
		return err
	}
	b.log.Info("not removing from watchlist", "id", id, "symbol", symbol)
	return nil
}

func (b *DryRunBroker) DeleteWatchlist(ctx context.Context, id string) error {
	if _, err := b.Broker.GetWatchlist(ctx, id); err != nil {
		return err
	}
	b.log.Info("not deleting watchlist", "id", id)
	return nil
}

// mirrorOrder copies a live order into the simulator so it can be mutated
// there.
func (b *DryRunBroker) mirrorOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := b.Broker.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("retrieving order %s: %w", orderID, err)
	}
	b.sim.AddOrder(*o)
	return o, nil
}
