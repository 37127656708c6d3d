package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
)

type mockUserRepository struct {
	getFn    func(ctx context.Context, id uuid.UUID) (*model.User, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.User{ID: id}, nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// recordingCache tracks Remember calls; lookups always miss.
type recordingCache struct {
	mu         sync.Mutex
	remembered []string
}

func (c *recordingCache) Get(ctx context.Context, code string) (*model.CachedLink, error) {
	return nil, errors.New("cache: miss")
}

func (c *recordingCache) Set(ctx context.Context, entry *model.CachedLink) error { return nil }

func (c *recordingCache) MightContain(code string) bool { return true }

func (c *recordingCache) Remember(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remembered = append(c.remembered, code)
}

func (c *recordingCache) Warm(codes []string) {}

func TestLinkService_CreateLink(t *testing.T) {
	userID := uuid.New()
	var created *model.Link
	links := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			created = link
			return nil
		},
	}
	rc := &recordingCache{}

	svc := NewLinkService(links, &mockUserRepository{}, NewAliasAllocator(links), rc)
	link, err := svc.CreateLink(context.Background(), userID, CreateLinkInput{
		OriginalURL: "https://example.com",
		Topic:       "launch2024",
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected link to be persisted")
	}
	if len(link.ShortCode) != codeLength {
		t.Fatalf("expected generated code, got %q", link.ShortCode)
	}
	if link.UserID != userID {
		t.Fatalf("expected owner %s, got %s", userID, link.UserID)
	}
	if len(rc.remembered) != 1 || rc.remembered[0] != link.ShortCode {
		t.Fatalf("expected cache to remember %q, got %v", link.ShortCode, rc.remembered)
	}
}

func TestLinkService_CreateLink_UnknownOwner(t *testing.T) {
	links := &mockLinkRepository{}
	users := &mockUserRepository{
		getFn: func(ctx context.Context, id uuid.UUID) (*model.User, error) {
			return nil, repository.ErrUserNotFound
		},
	}

	svc := NewLinkService(links, users, NewAliasAllocator(links), nil)
	_, err := svc.CreateLink(context.Background(), uuid.New(), CreateLinkInput{
		OriginalURL: "https://example.com",
	})
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLinkService_CreateLink_CustomAliasConflict(t *testing.T) {
	links := &mockLinkRepository{
		existsFn: func(ctx context.Context, code string) (bool, error) {
			return code == "promo", nil
		},
	}

	svc := NewLinkService(links, &mockUserRepository{}, NewAliasAllocator(links), nil)
	_, err := svc.CreateLink(context.Background(), uuid.New(), CreateLinkInput{
		OriginalURL: "https://example.com",
		CustomAlias: "promo",
	})

	var conflict *AliasConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected AliasConflictError, got %v", err)
	}
	if len(conflict.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(conflict.Suggestions))
	}
}

func TestLinkService_CreateLink_RacedAliasBecomesConflict(t *testing.T) {
	// The existence check passes, then a concurrent creation wins and the
	// unique constraint fires at insert time.
	links := &mockLinkRepository{
		existsFn: func(ctx context.Context, code string) (bool, error) {
			return false, nil
		},
		createFn: func(ctx context.Context, link *model.Link) error {
			return repository.ErrDuplicateCode
		},
	}

	svc := NewLinkService(links, &mockUserRepository{}, NewAliasAllocator(links), nil)
	_, err := svc.CreateLink(context.Background(), uuid.New(), CreateLinkInput{
		OriginalURL: "https://example.com",
		CustomAlias: "promo",
	})

	var conflict *AliasConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected AliasConflictError, got %v", err)
	}
}

func TestLinkService_DeleteOwner(t *testing.T) {
	deleted := uuid.Nil
	users := &mockUserRepository{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}
	links := &mockLinkRepository{}

	svc := NewLinkService(links, users, NewAliasAllocator(links), nil)
	userID := uuid.New()
	if err := svc.DeleteOwner(context.Background(), userID); err != nil {
		t.Fatalf("DeleteOwner returned error: %v", err)
	}
	if deleted != userID {
		t.Fatalf("expected delete of %s, got %s", userID, deleted)
	}
}
