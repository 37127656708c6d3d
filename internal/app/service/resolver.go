package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/linklytics/linklytics/internal/app/cache"
	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
	"go.uber.org/zap"
)

// Announcer fans a recorded access out to interested consumers. Announcing is
// best-effort and happens after the accounting transaction has committed.
type Announcer interface {
	Announce(link *model.CachedLink, event *model.AccessEvent) error
}

// ResolverDeps groups dependencies required by the redirect resolver.
type ResolverDeps struct {
	Logger    *zap.Logger
	Links     repository.LinkRepository
	Recorder  repository.AccessEventRepository
	Cache     cache.LinkCache
	Clients   *ClientInfo
	Announcer Announcer
}

// Resolver orchestrates one inbound redirect: cache-aside lookup of the
// identity projection, atomic access accounting, and best-effort fan-out.
type Resolver struct {
	logger    *zap.Logger
	links     repository.LinkRepository
	recorder  repository.AccessEventRepository
	cache     cache.LinkCache
	clients   *ClientInfo
	announcer Announcer
}

// NewResolver creates a resolver with the provided dependencies. Cache and
// Announcer may be nil; both are accelerations, never correctness.
func NewResolver(deps ResolverDeps) *Resolver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clients := deps.Clients
	if clients == nil {
		clients = NewClientInfo(nil)
	}
	return &Resolver{
		logger:    logger,
		links:     deps.Links,
		recorder:  deps.Recorder,
		cache:     deps.Cache,
		clients:   clients,
		announcer: deps.Announcer,
	}
}

// Resolve maps a short code to its destination URL and records the access.
// Cache trouble of any kind degrades to a store read; a missing code returns
// repository.ErrLinkNotFound; storage failures propagate unretried.
func (r *Resolver) Resolve(ctx context.Context, code string, cc ClientContext) (string, error) {
	var entry *model.CachedLink

	if r.cache != nil {
		if !r.cache.MightContain(code) {
			return "", repository.ErrLinkNotFound
		}

		cached, err := r.cache.Get(ctx, code)
		switch {
		case err == nil:
			entry = cached
		case errors.Is(err, cache.ErrMiss):
			// fall through to the store
		default:
			r.logger.Warn("link cache read failed, falling back to store",
				zap.String("code", code), zap.Error(err))
		}
	}

	if entry == nil {
		link, err := r.links.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrLinkNotFound) {
				return "", err
			}
			return "", fmt.Errorf("load link: %w", err)
		}

		entry = link.Projection()
		if r.cache != nil {
			if err := r.cache.Set(ctx, entry); err != nil {
				// A cold cache never fails the redirect.
				r.logger.Warn("link cache write failed",
					zap.String("code", code), zap.Error(err))
			}
		}
	}

	osName, device, location := r.clients.Derive(cc)
	event := &model.AccessEvent{
		ID:         uuid.New(),
		IP:         cc.IP,
		UserAgent:  cc.UserAgent,
		OS:         osName,
		Device:     device,
		Location:   location,
		AccessedAt: cc.Time,
	}

	if err := r.recorder.RecordAccess(ctx, entry.ID, event); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			// The link vanished between the (possibly cached) lookup and the
			// accounting write: owner cascade won the race.
			return "", err
		}
		return "", fmt.Errorf("record access: %w", err)
	}

	if r.announcer != nil {
		go r.announce(entry, event)
	}

	r.logger.Debug("redirecting short link",
		zap.String("code", code), zap.String("target", entry.OriginalURL))
	return entry.OriginalURL, nil
}

func (r *Resolver) announce(entry *model.CachedLink, event *model.AccessEvent) {
	if err := r.announcer.Announce(entry, event); err != nil {
		r.logger.Error("failed to announce access",
			zap.String("code", entry.ShortCode), zap.Error(err))
	}
}
