package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/datawhisper/datawhisper/internal/client"
)

var (
	ErrEmptyInput = errors.New("query text is empty")
	ErrClosed     = errors.New("session is closed")
)

type Sender interface {
	Send(ctx context.Context, queryText string) (client.Response, error)
}

// Pending is a submission that has been started by Begin and still has to be
// resolved by Await.
type Pending struct {
	Generation uint64
	Text       string

	ctx    context.Context
	cancel context.CancelFunc
}

// Controller owns the State of one client and drives the Sender. Each Begin
// cancels the call it supersedes, and results are applied only when they
// carry the latest generation.
type Controller struct {
	sender Sender
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	issued   uint64
	inFlight context.CancelFunc
	closed   bool
}

func NewController(sender Sender, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{sender: sender, logger: logger}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Busy() bool {
	return c.State().Busy
}

func (c *Controller) SetInput(text string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, InputChanged{Text: text})
	return c.state
}

// Begin clears the previous outcome and marks the controller busy before any
// network activity happens.
func (c *Controller) Begin(ctx context.Context, text string) (Pending, error) {
	if strings.TrimSpace(text) == "" {
		return Pending{}, ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Pending{}, ErrClosed
	}
	if c.inFlight != nil {
		c.inFlight()
		c.logger.InfoContext(ctx, "submission superseded", slog.Uint64("generation", c.issued))
	}

	c.issued++
	reqCtx, cancel := context.WithCancel(ctx)
	c.inFlight = cancel
	c.state = Reduce(c.state, SubmitRequested{Generation: c.issued, Text: text})
	c.logger.InfoContext(ctx, "submission started", slog.Uint64("generation", c.issued))

	return Pending{Generation: c.issued, Text: text, ctx: reqCtx, cancel: cancel}, nil
}

// Await performs the network exchange of p and applies its outcome. It
// returns the state after the terminal transition, which is unchanged when p
// has been superseded in the meantime.
func (c *Controller) Await(p Pending) State {
	if p.ctx == nil {
		return c.State()
	}
	defer p.cancel()

	resp, err := c.sender.Send(p.ctx, p.Text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.issued == p.Generation {
		c.inFlight = nil
	}

	var event Event
	if err != nil {
		event = RequestFailed{Generation: p.Generation, Message: err.Error()}
	} else {
		event = RequestSucceeded{Generation: p.Generation, TranslatedQuery: resp.TranslatedQuery, Rows: resp.Rows}
	}

	if c.state.Generation != p.Generation || !c.state.Busy {
		c.logger.DebugContext(p.ctx, "stale submission result dropped",
			slog.Uint64("generation", p.Generation),
			slog.Bool("canceled", client.IsCanceled(err)),
		)
		return c.state
	}

	c.state = Reduce(c.state, event)
	if err != nil {
		c.logger.WarnContext(p.ctx, "submission failed",
			slog.Uint64("generation", p.Generation),
			slog.Any("error", err),
		)
	} else {
		c.logger.InfoContext(p.ctx, "submission succeeded",
			slog.Uint64("generation", p.Generation),
			slog.Int("rows", len(resp.Rows)),
		)
	}
	return c.state
}

// Submit runs a whole submit cycle and blocks until it resolves.
func (c *Controller) Submit(ctx context.Context, text string) (State, error) {
	pending, err := c.Begin(ctx, text)
	if err != nil {
		return c.State(), err
	}
	return c.Await(pending), nil
}

// Close cancels the in-flight call, if any, and rejects further submissions.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.inFlight != nil {
		c.inFlight()
		c.inFlight = nil
	}
}
