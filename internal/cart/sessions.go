package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/toko-cart/internal/cache"
	"github.com/noah-isme/toko-cart/internal/catalog"
	"github.com/noah-isme/toko-cart/internal/settings"
)

// ErrSessionRequired is returned when no session identifier is supplied.
var ErrSessionRequired = errors.New("cart session id required")

var tracer = otel.Tracer("github.com/noah-isme/toko-cart/internal/cart")

// Locker serialises work on a key.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Sessions binds carts to session identifiers: each mutation loads the stored cart,
// applies the change under the session lock and writes the result back.
type Sessions struct {
	Repo     Repository
	Locker   Locker
	LockTTL  time.Duration
	Catalog  catalog.Catalog
	Settings settings.Provider
	Logger   zerolog.Logger
}

// Open loads the session cart for reading.
func (s *Sessions) Open(ctx context.Context, sessionID string) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	snap, err := s.Repo.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	store := NewStore(s.Catalog, s.Settings, s.Logger.With().Str("session_id", sessionID).Logger())
	store.Load(snap)
	return store, nil
}

// Mutate applies fn to the session cart and persists the outcome. Nothing is written when fn fails.
func (s *Sessions) Mutate(ctx context.Context, sessionID string, fn func(context.Context, *Store) error) (*Store, error) {
	ctx, span := tracer.Start(ctx, "cart.Mutate")
	defer span.End()
	span.SetAttributes(attribute.String("cart.session_id", sessionID))

	var out *Store
	run := func(ctx context.Context) error {
		store, err := s.Open(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(ctx, store); err != nil {
			return err
		}
		if err := s.Repo.Save(ctx, strings.TrimSpace(sessionID), store.Snapshot()); err != nil {
			return err
		}
		out = store
		return nil
	}

	var err error
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, cache.KeyCartLock(strings.TrimSpace(sessionID)), s.LockTTL, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.Logger.Warn().Err(err).Str("session_id", sessionID).Msg("cart_mutate")
		return nil, err
	}
	return out, nil
}

// Empty deletes the session cart, e.g. once checkout completes.
func (s *Sessions) Empty(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrSessionRequired
	}
	return s.Repo.Delete(ctx, sessionID)
}
