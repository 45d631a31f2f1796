package generator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"linesort/internal/config"
	"linesort/internal/logging"
)

// Generator coordinates one consumer and Workers concurrent runs of a
// producer over a shared channel.
type Generator struct {
	ch       *Channel
	consumer Worker
	producer Worker
	workers  int
}

// New returns a coordinator. workers must be in [1, config.MaxWorkers].
func New(ch *Channel, consumer, producer Worker, workers int) (*Generator, error) {
	if err := config.RequirePositive("workers", workers); err != nil {
		return nil, err
	}
	if workers > config.MaxWorkers {
		return nil, fmt.Errorf("%w: workers must be at most %d", config.ErrInvalid, config.MaxWorkers)
	}
	if ch == nil || consumer == nil || producer == nil {
		return nil, fmt.Errorf("%w: generator needs a channel, a consumer and a producer", config.ErrInvalid)
	}
	return &Generator{ch: ch, consumer: consumer, producer: producer, workers: workers}, nil
}

// Generate runs the pipeline to completion. It closes the channel exactly
// once, after every producer has returned, then waits for the consumer.
// A consumer failure cancels the producers; a producer failure cancels the
// consumer. The consumer's error wins when both fail.
func (g *Generator) Generate(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	consumerDone := make(chan error, 1)
	go func() {
		err := g.consumer.Run(ctx)
		if err != nil {
			cancel()
		}
		consumerDone <- err
	}()

	producers, pctx := errgroup.WithContext(ctx)
	for i := 0; i < g.workers; i++ {
		producers.Go(func() error { return g.producer.Run(pctx) })
	}
	perr := producers.Wait()
	if perr != nil {
		cancel()
	}
	logging.Debugf("generate: producers done workers=%d queued=%d", g.workers, g.ch.Len())

	g.ch.Close()
	cerr := <-consumerDone
	if n := g.ch.releaseRemaining(); n > 0 {
		logging.Debugf("generate: released %d unwritten buffers", n)
	}

	switch {
	case cerr != nil:
		return fmt.Errorf("generate: %w", cerr)
	case perr != nil:
		return fmt.Errorf("generate: producer: %w", perr)
	}
	return nil
}
