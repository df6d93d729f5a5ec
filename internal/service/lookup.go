package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/target/jobdesk-api/internal/core"
	"github.com/target/jobdesk-api/internal/domain/model"
)

// initStateCacheKey is the cache key of the assembled job form state.
const initStateCacheKey = "lookup:init_state"

// LookupServiceOptions groups dependencies for LookupService.
type LookupServiceOptions struct {
	Repo     core.LookupRepository // Required: lookup repository
	Cache    core.CacheRepository  // Optional: cache for the assembled state
	CacheTTL time.Duration         // Optional: cache TTL, zero disables caching
	Logger   *slog.Logger          // Optional: structured logger
}

// LookupService assembles the reference data the job form starts with.
type LookupService struct {
	repo   core.LookupRepository
	cache  core.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewLookupService constructs a new LookupService.
func NewLookupService(opts LookupServiceOptions) (*LookupService, error) {
	if opts.Repo == nil {
		return nil, errors.New("LookupRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LookupService{
		repo:   opts.Repo,
		cache:  opts.Cache,
		ttl:    opts.CacheTTL,
		logger: logger.With("component", "lookup_service"),
	}, nil
}

// MustNewLookupService constructs a new LookupService and panics on error.
func MustNewLookupService(opts LookupServiceOptions) *LookupService {
	svc, err := NewLookupService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create LookupService: %v", err))
	}
	return svc
}

// GetUserInfoInitState returns the lookup values and clients of the job form. Failures are
// logged and reported as an empty state.
func (s *LookupService) GetUserInfoInitState(ctx context.Context) model.InitPageState {
	if state, ok := s.cached(ctx); ok {
		return state
	}

	v, err, shared := s.group.Do(initStateCacheKey, func() (any, error) {
		state, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		s.store(ctx, state)
		return state, nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "load init page state failed", "error", err)
		return model.InitPageState{Items: []model.InitStateItem{}}
	}
	if shared {
		s.logger.DebugContext(ctx, "init page state load shared")
	}
	state, _ := v.(model.InitPageState)
	if state.Items == nil {
		state.Items = []model.InitStateItem{}
	}
	return state
}

// Invalidate drops the cached state so the next call reloads it.
func (s *LookupService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if _, err := s.cache.Delete(ctx, initStateCacheKey); err != nil {
		return fmt.Errorf("invalidate init page state: %w", err)
	}
	return nil
}

func (s *LookupService) load(ctx context.Context) (model.InitPageState, error) {
	var (
		values  []model.LookupValue
		clients []model.ClientRef
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		values, err = s.repo.ListValues(gctx, model.InitStateDomains())
		return err
	})
	g.Go(func() error {
		var err error
		clients, err = s.repo.ListClients(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.InitPageState{}, err
	}
	return model.BuildInitPageState(values, clients), nil
}

func (s *LookupService) cached(ctx context.Context) (model.InitPageState, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return model.InitPageState{}, false
	}
	raw, err := s.cache.Get(ctx, initStateCacheKey)
	if err != nil {
		s.logger.WarnContext(ctx, "init page state cache read failed", "error", err)
		return model.InitPageState{}, false
	}
	if raw == nil {
		return model.InitPageState{}, false
	}
	var state model.InitPageState
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.WarnContext(ctx, "init page state cache entry is corrupt", "error", err)
		return model.InitPageState{}, false
	}
	return state, true
}

func (s *LookupService) store(ctx context.Context, state model.InitPageState) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, initStateCacheKey, raw, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "init page state cache write failed", "error", err)
	}
}
