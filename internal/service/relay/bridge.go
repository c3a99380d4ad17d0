// Package relay mirrors page updates between dashboard replicas so browsers
// connected to any replica see the same fragments.
package relay

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"FinDash/internal/domain/models"
	"FinDash/internal/view"
	applogger "FinDash/pkg/logger"
)

// Transport carries encoded updates between replicas. pkg/pubsub.Relay
// implements it over Redis.
type Transport interface {
	Publish(ctx context.Context, payload interface{}) error
	Run(ctx context.Context, handle func(origin string, payload []byte)) error
}

// Counter counts relayed updates by direction.
type Counter interface {
	RecordRelay(direction string)
}

// Bridge forwards local store updates to the transport and applies remote
// ones to the store.
type Bridge struct {
	store     *view.Store
	transport Transport
	counter   Counter
	logger    *applogger.Logger
}

func NewBridge(store *view.Store, t Transport, c Counter, logger *applogger.Logger) *Bridge {
	return &Bridge{store: store, transport: t, counter: c, logger: logger}
}

// Run relays in both directions until ctx ends.
func (b *Bridge) Run(ctx context.Context) error {
	updates, unsubscribe := b.store.Subscribe(256)
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case u, ok := <-updates:
				if !ok {
					return nil
				}
				b.forward(gctx, u)
			}
		}
	})
	g.Go(func() error {
		return b.transport.Run(gctx, b.apply)
	})
	return g.Wait()
}

// relayable reports whether u is a data panel fragment. Chat transcripts and
// tab visibility belong to the replica's own browsers and stay local.
func relayable(u view.Update) bool {
	return u.Tab == "" && u.Panel != "" && u.Panel != models.PanelChat
}

func (b *Bridge) forward(ctx context.Context, u view.Update) {
	if u.Origin != "" || !relayable(u) {
		return
	}
	if err := b.transport.Publish(ctx, u); err != nil {
		b.logger.Warn("relay publish failed", applogger.Error(err))
		return
	}
	b.counter.RecordRelay("out")
}

func (b *Bridge) apply(origin string, payload []byte) {
	var u view.Update
	if err := json.Unmarshal(payload, &u); err != nil {
		b.logger.Debug("relay message dropped", applogger.String("origin", origin), applogger.Error(err))
		return
	}
	if !relayable(u) {
		b.logger.Debug("relay message ignored", applogger.String("origin", origin), applogger.String("panel", u.Panel))
		return
	}
	u.Origin = origin
	b.store.Apply(u)
	b.counter.RecordRelay("in")
}
