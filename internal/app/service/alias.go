package service

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/linklytics/linklytics/internal/app/repository"
)

const (
	codeLength     = 6
	codeAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	suffixLength   = 2
	suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	suggestionCount = 3
)

// AliasConflictError reports that a requested custom alias is already taken.
// It is an expected outcome, not a failure: Suggestions carries three
// alternatives formed by suffixing the requested alias. Suggestions are not
// reserved or re-checked against the store.
type AliasConflictError struct {
	Alias       string
	Suggestions []string
}

func (e *AliasConflictError) Error() string {
	return fmt.Sprintf("alias %q is already taken", e.Alias)
}

// AliasAllocator decides the short code for a new link. It performs no
// writes; the caller creates the row, and the store's unique constraint stays
// the final arbiter under races.
type AliasAllocator struct {
	links repository.LinkRepository
}

// NewAliasAllocator returns an allocator backed by the given link repository.
func NewAliasAllocator(links repository.LinkRepository) *AliasAllocator {
	return &AliasAllocator{links: links}
}

// Allocate returns the code to use for a new link. An empty request yields a
// generated 6-character code; generated codes are not re-checked for
// collisions (the probability over a 64-character alphabet is treated as
// negligible). A requested alias is checked against the store and either
// accepted verbatim or rejected with an AliasConflictError.
func (a *AliasAllocator) Allocate(ctx context.Context, requested string) (string, error) {
	if requested == "" {
		return randomString(codeAlphabet, codeLength)
	}

	taken, err := a.links.ExistsByCode(ctx, requested)
	if err != nil {
		return "", fmt.Errorf("check alias: %w", err)
	}
	if taken {
		suggestions, err := SuggestAliases(requested)
		if err != nil {
			return "", fmt.Errorf("suggest aliases: %w", err)
		}
		return "", &AliasConflictError{Alias: requested, Suggestions: suggestions}
	}

	return requested, nil
}

// SuggestAliases produces three alternatives for a taken alias, each the
// alias plus a 2-character base-36 suffix.
func SuggestAliases(base string) ([]string, error) {
	suggestions := make([]string, 0, suggestionCount)
	for i := 0; i < suggestionCount; i++ {
		suffix, err := randomString(suffixAlphabet, suffixLength)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, base+suffix)
	}
	return suggestions, nil
}

// randomString samples n characters uniformly from alphabet using crypto/rand,
// rejecting bytes that would bias the tail of the distribution.
func randomString(alphabet string, n int) (string, error) {
	limit := byte(256 - 256%len(alphabet))
	out := make([]byte, 0, n)
	buf := make([]byte, n)

	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		for _, b := range buf {
			if limit != 0 && b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}

	return string(out), nil
}
