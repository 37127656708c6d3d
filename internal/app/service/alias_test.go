package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
)

type mockLinkRepository struct {
	createFn func(ctx context.Context, link *model.Link) error
	getFn    func(ctx context.Context, code string) (*model.Link, error)
	existsFn func(ctx context.Context, code string) (bool, error)
	codesFn  func(ctx context.Context) ([]string, error)
}

func (m *mockLinkRepository) Create(ctx context.Context, link *model.Link) error {
	if m.createFn != nil {
		return m.createFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	if m.getFn != nil {
		return m.getFn(ctx, code)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, code)
	}
	return false, nil
}

func (m *mockLinkRepository) Codes(ctx context.Context) ([]string, error) {
	if m.codesFn != nil {
		return m.codesFn(ctx)
	}
	return nil, nil
}

func TestAliasAllocator_GeneratesFixedLengthCodes(t *testing.T) {
	alloc := NewAliasAllocator(&mockLinkRepository{})

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := alloc.Allocate(context.Background(), "")
		if err != nil {
			t.Fatalf("Allocate returned error: %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("expected %d-character code, got %q", codeLength, code)
		}
		for _, ch := range code {
			if !strings.ContainsRune(codeAlphabet, ch) {
				t.Fatalf("code %q contains %q outside the alphabet", code, ch)
			}
		}
		seen[code] = true
	}

	if len(seen) < 99 {
		t.Fatalf("expected distinct codes, got %d distinct out of 100", len(seen))
	}
}

func TestAliasAllocator_AcceptsFreeAlias(t *testing.T) {
	alloc := NewAliasAllocator(&mockLinkRepository{
		existsFn: func(ctx context.Context, code string) (bool, error) {
			return false, nil
		},
	})

	code, err := alloc.Allocate(context.Background(), "promo")
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}
	if code != "promo" {
		t.Fatalf("expected alias accepted verbatim, got %q", code)
	}
}

func TestAliasAllocator_ConflictCarriesThreeSuggestions(t *testing.T) {
	alloc := NewAliasAllocator(&mockLinkRepository{
		existsFn: func(ctx context.Context, code string) (bool, error) {
			return true, nil
		},
	})

	_, err := alloc.Allocate(context.Background(), "promo")
	var conflict *AliasConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected AliasConflictError, got %v", err)
	}
	if conflict.Alias != "promo" {
		t.Fatalf("expected alias %q, got %q", "promo", conflict.Alias)
	}
	if len(conflict.Suggestions) != suggestionCount {
		t.Fatalf("expected %d suggestions, got %d", suggestionCount, len(conflict.Suggestions))
	}
	for _, s := range conflict.Suggestions {
		if !strings.HasPrefix(s, "promo") {
			t.Fatalf("suggestion %q does not keep the requested alias prefix", s)
		}
		suffix := strings.TrimPrefix(s, "promo")
		if len(suffix) != suffixLength {
			t.Fatalf("suggestion %q suffix is not %d characters", s, suffixLength)
		}
		for _, ch := range suffix {
			if !strings.ContainsRune(suffixAlphabet, ch) {
				t.Fatalf("suggestion %q has suffix character %q outside base36", s, ch)
			}
		}
	}
}

func TestAliasAllocator_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("connection refused")
	alloc := NewAliasAllocator(&mockLinkRepository{
		existsFn: func(ctx context.Context, code string) (bool, error) {
			return false, storeErr
		},
	})

	_, err := alloc.Allocate(context.Background(), "promo")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestRandomString_StaysInsideAlphabet(t *testing.T) {
	// base36 does not divide 256 evenly; the sampler must reject, not wrap.
	for i := 0; i < 50; i++ {
		s, err := randomString(suffixAlphabet, 8)
		if err != nil {
			t.Fatalf("randomString error: %v", err)
		}
		if len(s) != 8 {
			t.Fatalf("expected length 8, got %q", s)
		}
		for _, ch := range s {
			if !strings.ContainsRune(suffixAlphabet, ch) {
				t.Fatalf("character %q outside alphabet", ch)
			}
		}
	}
}
