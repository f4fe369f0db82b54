// Package service implements the shop's use cases on top of the repository,
// the FIFO engine and the financial aggregator.
package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"myshop/backend/internal/domain"
	"myshop/backend/internal/fifo"
	"myshop/backend/internal/finance"
	"myshop/backend/internal/repository"
	"myshop/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	// Location is the shop's time zone for date-only inputs.
	Location *time.Location
	PageSize int
	Now      func() time.Time
}

type Service struct {
	repo     *repository.Repository
	fifo     *fifo.Engine
	finance  *finance.Aggregator
	log      zerolog.Logger
	location *time.Location
	pageSize int
	now      func() time.Time
}

func New(repo *repository.Repository, log zerolog.Logger, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PageSize < 1 {
		opts.PageSize = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:     repo,
		fifo:     fifo.NewEngine(repo, log.With().Str("component", "fifo").Logger()),
		finance:  finance.NewAggregator(repo),
		log:      log,
		location: opts.Location,
		pageSize: opts.PageSize,
		now:      opts.Now,
	}
}

// page converts a 1-based page number into limit and offset.
func (s *Service) page(page int) (int, int, error) {
	if page < 1 {
		return 0, 0, fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidInput)
	}
	if page-1 > math.MaxInt/s.pageSize {
		return 0, 0, fmt.Errorf("%w: page %d is out of range", domain.ErrInvalidInput, page)
	}
	return s.pageSize, (page - 1) * s.pageSize, nil
}

// unique fails with ErrConflict when another document already holds value in
// field. exceptID excludes the document being updated.
func unique(ctx context.Context, counter func(context.Context, ...store.Filter) (int, error), field, value, exceptID, label string) error {
	filters := []store.Filter{store.Equal(field, value)}
	if exceptID != "" {
		filters = append(filters, store.NotEqual(store.FieldID, exceptID))
	}
	n, err := counter(ctx, filters...)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %s %q already exists", domain.ErrConflict, label, value)
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{UserID: "system"}
	}
	s.log.Info().
		Str("actor", actor.UserID).
		Str("action", action).
		Str("entity_type", entityType).
		Str("entity_id", entityID).
		Str("detail", detail).
		Msg("audit")
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
