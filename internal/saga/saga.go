// Package saga runs a sequence of writes that cannot share a transaction.
// Each completed step may register an undo; when a later step fails the undos
// run newest first.
package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

type Saga struct {
	name  string
	log   zerolog.Logger
	undos []undo
}

type undo struct {
	step string
	fn   func(context.Context) error
}

func New(name string, log zerolog.Logger) *Saga {
	return &Saga{name: name, log: log}
}

// Do runs action. When it succeeds and compensate is not nil, compensate is
// kept for Rollback.
func (s *Saga) Do(ctx context.Context, step string, action func(context.Context) error, compensate func(context.Context) error) error {
	if err := action(ctx); err != nil {
		return err
	}
	if compensate != nil {
		s.undos = append(s.undos, undo{step: step, fn: compensate})
	}
	return nil
}

// Rollback runs registered undos in reverse order. Every undo is attempted;
// failures are logged and joined into the returned error. The context used is
// detached from cancellation so a cancelled request still cleans up.
func (s *Saga) Rollback(ctx context.Context, cause error) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(s.undos) - 1; i >= 0; i-- {
		u := s.undos[i]
		if err := u.fn(ctx); err != nil {
			s.log.Error().
				Err(err).
				Str("saga", s.name).
				Str("step", u.step).
				AnErr("cause", cause).
				Msg("compensation failed")
			errs = append(errs, fmt.Errorf("undo %s: %w", u.step, err))
		}
	}
	s.undos = nil
	return errors.Join(errs...)
}

// Fail rolls back and returns cause unchanged, so compensation problems never
// replace the error the caller sees.
func (s *Saga) Fail(ctx context.Context, cause error) error {
	_ = s.Rollback(ctx, cause)
	return cause
}
