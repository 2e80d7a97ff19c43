package engine

import (
	"context"
	"log"

	"lastmile/fulfill"
	"lastmile/jobs"
	"lastmile/messaging"
)

// Config collects the already-constructed components the engine runs.
type Config struct {
	Publisher  *messaging.Publisher
	Consumer   *messaging.Consumer
	Handler    *messaging.OrderEventHandler
	Processor  *fulfill.Processor
	Retries    *fulfill.RetryWorker
	Reconciler *jobs.Reconciler
}

// Engine owns the running pipeline: the event handler subscription, the
// broker consumer, the retry drain loop, and the stale-order sweep. It
// starts them together and stops them together.
type Engine struct {
	cfg         Config
	unsubscribe []func()
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Start() error {
	// Local handlers first, so no event slips past during startup.
	e.unsubscribe = append(e.unsubscribe, e.cfg.Handler.Register(e.cfg.Publisher.Bus()))

	// An order-created event kicks off fulfillment. Triggered orders run
	// unbounded; only bulk runs are batched.
	e.unsubscribe = append(e.unsubscribe, e.cfg.Publisher.Subscribe(messaging.TypeOrderCreated, func(evt messaging.Event) {
		go func() {
			if err := e.cfg.Processor.ProcessOrder(context.Background(), evt.OrderID); err != nil {
				log.Printf("engine: process order %d: %v", evt.OrderID, err)
			}
		}()
	}))

	if e.cfg.Consumer != nil {
		if err := e.cfg.Consumer.Start(); err != nil {
			log.Printf("engine: broker consumer unavailable (%v), relying on fallback delivery", err)
		}
	}

	e.cfg.Publisher.Start()
	e.cfg.Retries.Start()
	if err := e.cfg.Reconciler.Start(); err != nil {
		return err
	}

	log.Printf("engine: pipeline started")
	return nil
}

func (e *Engine) Stop() {
	e.cfg.Reconciler.Stop()
	e.cfg.Retries.Stop()
	e.cfg.Publisher.Stop()
	for _, unsub := range e.unsubscribe {
		unsub()
	}
	e.unsubscribe = nil
	log.Printf("engine: pipeline stopped")
}
