package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/itchan-dev/forum/shared/logger"
)

type Listener func(ctx context.Context, e Event) error

// Notifier is what commands depend on.
type Notifier interface {
	Notify(ctx context.Context, evs ...Event) error
}

type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[string][]Listener)}
}

func (d *Dispatcher) Listen(name string, l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[name] = append(d.listeners[name], l)
}

// Notify runs the listeners of every event in registration order. All
// listeners run even if one fails; the failures are joined.
func (d *Dispatcher) Notify(ctx context.Context, evs ...Event) error {
	var errs []error
	for _, e := range evs {
		d.mu.RLock()
		listeners := d.listeners[e.Name()]
		d.mu.RUnlock()

		for _, l := range listeners {
			if err := l(ctx, e); err != nil {
				logger.Ctx(ctx).Error("event listener failed", "component", "events", "event", e.Name(), "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
