package authstate

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ProfileEnricher turns a raw identity into a display-ready user, with a
// TTL cache bounding backend reads.
type ProfileEnricher struct {
	store    ProfileStore
	cache    ProfileCache
	logger   Logger
	provider LoggerProvider
	activity ActivitySink
}

// EnricherOption customizes enricher construction.
type EnricherOption func(*ProfileEnricher)

// WithEnricherCache overrides the default in-memory profile cache.
func WithEnricherCache(cache ProfileCache) EnricherOption {
	return func(e *ProfileEnricher) {
		if cache != nil {
			e.cache = cache
		}
	}
}

// WithEnricherCacheTTL replaces the cache with an in-memory cache using
// the given TTL.
func WithEnricherCacheTTL(ttl time.Duration) EnricherOption {
	return func(e *ProfileEnricher) {
		e.cache = NewMemoryProfileCache(ttl)
	}
}

// WithEnricherActivitySink sets the sink used for profile update events.
func WithEnricherActivitySink(sink ActivitySink) EnricherOption {
	return func(e *ProfileEnricher) {
		e.activity = normalizeActivitySink(sink)
	}
}

// NewProfileEnricher will create a new ProfileEnricher backed by the
// provided store.
func NewProfileEnricher(store ProfileStore, opts ...EnricherOption) *ProfileEnricher {
	loggerProvider, logger := ResolveLogger("authstate.enricher", nil, nil)
	enricher := &ProfileEnricher{
		store:    store,
		cache:    NewMemoryProfileCache(DefaultProfileCacheTTL),
		logger:   logger,
		provider: loggerProvider,
		activity: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(enricher)
		}
	}

	return enricher
}

func (e *ProfileEnricher) WithLogger(l Logger) *ProfileEnricher {
	e.provider, e.logger = ResolveLogger("authstate.enricher", e.provider, l)
	return e
}

// WithLoggerProvider overrides the logger provider used by the enricher.
func (e *ProfileEnricher) WithLoggerProvider(provider LoggerProvider) *ProfileEnricher {
	e.provider, e.logger = ResolveLogger("authstate.enricher", provider, e.logger)
	return e
}

// EnrichUser merges the profile row for the identity onto it. A nil
// identity yields a nil user. The caller always receives a usable user
// for non-auth failures: a missing or unreadable profile degrades to the
// identity's own metadata with the student role. Errors are returned only
// when classified as auth errors, meaning the session itself is suspect.
func (e *ProfileEnricher) EnrichUser(ctx context.Context, identity *Identity) (*EnrichedUser, error) {
	if identity == nil {
		return nil, nil
	}

	key := identity.ID.String()

	if cached, ok, err := e.cache.Get(ctx, key); err != nil {
		e.logger.Warn("profile cache read failed", "error", err, "user_id", key)
	} else if ok {
		return mergeProfile(identity, cached), nil
	}

	profile, err := e.store.GetProfile(ctx, identity.ID)
	if err != nil {
		if IsAuthClassified(err) {
			return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "profile fetch rejected for invalid session")
		}

		if IsProfileNotFound(err) {
			e.logger.Debug("no profile row for user, using defaults", "user_id", key)
		} else {
			e.logger.Warn("profile fetch failed, degrading to minimal user", "error", err, "user_id", key)
		}

		return fallbackUser(identity), nil
	}

	profile.EnsureRole()

	if err := e.cache.Set(ctx, key, profile); err != nil {
		e.logger.Warn("profile cache write failed", "error", err, "user_id", key)
	}

	return mergeProfile(identity, profile), nil
}

// UpdateProfile applies a partial update to the profile row and
// invalidates the cache entry so the next enrichment re-fetches fresh
// data. Store errors propagate; no local state is committed first.
func (e *ProfileEnricher) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*Profile, error) {
	if update.IsEmpty() {
		return nil, goerrors.New("profile update has no fields", goerrors.CategoryBadInput).
			WithTextCode("EMPTY_PROFILE_UPDATE")
	}

	profile, err := e.store.UpdateProfile(ctx, id, update.Normalize())
	if err != nil {
		return nil, err
	}

	key := id.String()
	if err := e.cache.Delete(ctx, key); err != nil {
		e.logger.Warn("profile cache invalidation failed", "error", err, "user_id", key)
	}

	e.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventProfileUpdated,
		UserID:    key,
	})

	return profile, nil
}

// InvalidateProfile drops the cached entry for a user.
func (e *ProfileEnricher) InvalidateProfile(ctx context.Context, id uuid.UUID) error {
	return e.cache.Delete(ctx, id.String())
}

func (e *ProfileEnricher) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	sink := normalizeActivitySink(e.activity)
	if err := sink.Record(ctx, event); err != nil {
		e.logger.Warn("enricher activity sink error", "error", err)
	}
}
