package ingest

import (
	"context"
	"sync/atomic"
)

// A CancelToken is a monotonic boolean cancellation signal. Once Cancel is
// called, Canceled always returns true; there is no way to reset a token.
//
// It exists alongside context.Context because the core honors two
// independent cancellation signals per read: one supplied by the caller
// directly, and one embedded in the read options (so library code that
// only has access to Options, not the caller's context, can still abort a
// stream early).
type CancelToken struct {
	canceled atomic.Bool
}

// NewCancelToken builds an unset CancelToken.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel sets the token. Safe to call more than once or concurrently.
func (t *CancelToken) Cancel() {
	if t == nil {
		return
	}
	t.canceled.Store(true)
}

// Canceled reports whether Cancel has ever been called. A nil token is
// never canceled.
func (t *CancelToken) Canceled() bool {
	return t != nil && t.canceled.Load()
}

// CancelSignal is anything the parser core can poll to decide whether to
// abort a stream. *CancelToken and context.Context both satisfy it.
type CancelSignal interface {
	Canceled() bool
}

// ctxSignal adapts a context.Context to CancelSignal.
type ctxSignal struct{ ctx context.Context }

func (c ctxSignal) Canceled() bool {
	if c.ctx == nil {
		return false
	}
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// CtxSignal wraps ctx as a CancelSignal. A nil context never cancels.
func CtxSignal(ctx context.Context) CancelSignal {
	return ctxSignal{ctx: ctx}
}

// CombinedSignal polls every supplied signal, in order, and reports
// canceled as soon as any one of them is canceled. Nil signals are
// skipped so callers can pass an unset *CancelToken or nil context.Context
// without guarding first.
type CombinedSignal []CancelSignal

// Canceled implements CancelSignal.
func (c CombinedSignal) Canceled() bool {
	for _, sig := range c {
		if sig == nil {
			continue
		}
		if sig.Canceled() {
			return true
		}
	}
	return false
}
