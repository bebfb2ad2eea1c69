// internal/coordination/driver.go
package coordination

import (
	"context"
	"errors"
	"time"

	"github.com/avivl/redis-lock/internal/observability"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// errActionPanicked stops the renewal loop when the action panics.
var errActionPanicked = errors.New("action panicked")

// Phase is a step of a guarded scope.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAcquiring
	PhaseRunning
	PhaseReleasing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAcquiring:
		return "acquiring"
	case PhaseRunning:
		return "running"
	case PhaseReleasing:
		return "releasing"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Scope describes how to take, keep, and give back a coordination primitive.
// H is the handle Acquire returns.
type Scope[H any] struct {
	// Kind and Name label logs and spans, e.g. "lock" and "orders".
	Kind string
	Name string

	Acquire func(ctx context.Context) (H, error)
	Release func(ctx context.Context, handle H) error

	// Renew, when set, is called every RenewInterval while the action runs.
	Renew         func(ctx context.Context, handle H) error
	RenewInterval time.Duration

	Logger *observability.SLogger
}

// Run acquires the scope, runs action while holding it, and releases it on
// every exit path once acquisition succeeded. Release uses a context that
// ignores the caller's cancellation.
//
// A failed Acquire is returned as is and nothing is released. If action
// fails its error wins; a failing release is joined after it. If action
// succeeds and release fails, the release error is returned.
func Run[H, T any](ctx context.Context, s Scope[H], action func(ctx context.Context, handle H) (T, error)) (result T, err error) {
	logger := s.Logger
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	logger = logger.With("kind", s.Kind, "name", s.Name)

	ctx, span := observability.Tracer().Start(ctx, s.Kind+" "+s.Name, traceAttrs(s)...)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	logPhase(ctx, logger, PhaseAcquiring)
	handle, err := s.Acquire(ctx)
	if err != nil {
		return result, err
	}

	defer func() {
		logPhase(ctx, logger, PhaseReleasing)
		releaseErr := s.Release(context.WithoutCancel(ctx), handle)
		switch {
		case releaseErr == nil:
		case err == nil:
			err = releaseErr
		default:
			err = errors.Join(err, releaseErr)
		}
		logPhase(ctx, logger, PhaseDone)
	}()

	logPhase(ctx, logger, PhaseRunning)
	if s.Renew == nil || s.RenewInterval <= 0 {
		return action(ctx, handle)
	}
	return runRenewing(ctx, s, logger, handle, action)
}

// runRenewing runs action next to a renewal loop. Both share one errgroup
// context: a renewal failure cancels the action, and the action finishing
// stops further renewals. An in-flight renewal is never cancelled; it is
// waited for before returning.
func runRenewing[H, T any](ctx context.Context, s Scope[H], logger *observability.SLogger, handle H, action func(context.Context, H) (T, error)) (T, error) {
	var result T
	var panicked any
	g, gctx := errgroup.WithContext(ctx)
	actionDone := make(chan struct{})

	g.Go(func() (err error) {
		defer close(actionDone)
		defer func() {
			if r := recover(); r != nil {
				panicked = r
				err = errActionPanicked
			}
		}()
		result, err = action(gctx, handle)
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(s.RenewInterval)
		defer ticker.Stop()

		renewCtx := context.WithoutCancel(ctx)
		for {
			select {
			case <-actionDone:
				return nil
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}

			// The action may have finished while we were waiting on the ticker.
			select {
			case <-actionDone:
				return nil
			default:
			}

			if err := s.Renew(renewCtx, handle); err != nil {
				logger.Ctx(ctx).Warnw("renewal failed, stopping scope", "error", err)
				return err
			}
			logger.Ctx(ctx).Debugw("lease renewed")
		}
	})

	err := g.Wait()
	if panicked != nil {
		// re-raised on the caller's goroutine so Run still releases
		panic(panicked)
	}
	return result, err
}

func logPhase(ctx context.Context, logger *observability.SLogger, p Phase) {
	logger.Ctx(ctx).Debugw("scope phase", "phase", p.String())
}
