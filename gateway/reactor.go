package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/42wim/matrixircd/bridge"
	"github.com/42wim/matrixircd/irckit"
	"github.com/desertbit/timer"
)

// pollBatch is the result of one long-poll round.
type pollBatch struct {
	events []*bridge.Event
	err    error
}

// Run handles IRC commands and poll results until the client quits, the
// command stream ends or ctx is done.
func (g *Gateway) Run(ctx context.Context, cmds <-chan irckit.Command) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-cmds:
			if !ok {
				logger.Infof("connection of %s closed", g.local.Nick)
				return nil
			}

			if err := g.HandleLocalCommand(ctx, cmd); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}

				return err
			}
		case batch := <-g.polls:
			if err := g.handleBatch(ctx, batch); err != nil {
				return err
			}
		}
	}
}

// startPoll runs one long-poll round in its own goroutine after delay. At
// most one round is outstanding, the next one is started once its batch has
// been handled.
func (g *Gateway) startPoll(ctx context.Context, delay time.Duration) {
	if g.polling {
		return
	}

	g.polling = true

	remote, polls := g.remote, g.polls

	go func() {
		if delay > 0 {
			t := timer.NewTimer(delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return
			}
		}

		events, err := remote.PollOnce(ctx)

		select {
		case polls <- pollBatch{events: events, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (g *Gateway) handleBatch(ctx context.Context, batch pollBatch) error {
	g.polling = false

	if batch.err != nil {
		d := g.backoff.Duration()
		logger.Errorf("poll failed, retrying in %s: %s", d, batch.err)
		g.startPoll(ctx, d)

		return nil
	}

	g.backoff.Reset()

	for _, evt := range batch.events {
		if err := g.HandleRemoteEvent(evt); err != nil {
			return err
		}
	}

	// rooms first seen in this batch get their name now that their state
	// has been applied
	if err := g.HandleRemoteEvent(&bridge.Event{Data: bridge.EndOfSync{}}); err != nil {
		return err
	}

	g.startPoll(ctx, 0)

	return nil
}
