package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/linklytics/linklytics/internal/app/cache"
	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
)

// LinkService defines behaviour-level operations on links and their owners.
type LinkService interface {
	CreateLink(ctx context.Context, userID uuid.UUID, input CreateLinkInput) (*model.Link, error)
	GetLink(ctx context.Context, code string) (*model.Link, error)
	DeleteOwner(ctx context.Context, userID uuid.UUID) error
}

// CreateLinkInput captures data required to create a link.
type CreateLinkInput struct {
	OriginalURL string
	CustomAlias string
	Topic       string
}

type linkService struct {
	links repository.LinkRepository
	users repository.UserRepository
	alias *AliasAllocator
	cache cache.LinkCache
}

// NewLinkService returns a service implementation backed by the given
// repositories. The cache may be nil; it is only notified of new codes.
func NewLinkService(links repository.LinkRepository, users repository.UserRepository, alias *AliasAllocator, linkCache cache.LinkCache) LinkService {
	return &linkService{
		links: links,
		users: users,
		alias: alias,
		cache: linkCache,
	}
}

// CreateLink allocates a short code and persists the link for the given
// owner. The owner must exist; a taken custom alias surfaces as an
// AliasConflictError, including when a concurrent creation wins the race and
// the unique constraint fires at insert time.
func (s *linkService) CreateLink(ctx context.Context, userID uuid.UUID, input CreateLinkInput) (*model.Link, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}

	code, err := s.alias.Allocate(ctx, input.CustomAlias)
	if err != nil {
		return nil, err
	}

	link := &model.Link{
		ID:          uuid.New(),
		ShortCode:   code,
		OriginalURL: input.OriginalURL,
		Topic:       input.Topic,
		UserID:      userID,
	}

	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicateCode) && input.CustomAlias != "" {
			suggestions, sErr := SuggestAliases(input.CustomAlias)
			if sErr != nil {
				return nil, fmt.Errorf("suggest aliases: %w", sErr)
			}
			return nil, &AliasConflictError{Alias: input.CustomAlias, Suggestions: suggestions}
		}
		return nil, fmt.Errorf("create link: %w", err)
	}

	if s.cache != nil {
		s.cache.Remember(code)
	}

	return link, nil
}

func (s *linkService) GetLink(ctx context.Context, code string) (*model.Link, error) {
	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	return link, nil
}

// DeleteOwner removes the user; the database cascade takes the owner's links
// and their access events with it, leaving no orphan events.
func (s *linkService) DeleteOwner(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete owner: %w", err)
	}
	return nil
}
