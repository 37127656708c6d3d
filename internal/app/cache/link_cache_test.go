package cache

import (
	"testing"
)

func TestLinkCache_FilterUnwarmedAnswersTrue(t *testing.T) {
	c := NewRedisLinkCache(nil, 0)

	// Without a warmed filter every code might exist; the store decides.
	if !c.MightContain("anything") {
		t.Fatal("unwarmed filter must never reject a code")
	}
}

func TestLinkCache_FilterRejectsUnknownCodes(t *testing.T) {
	c := NewRedisLinkCache(nil, 0, WithBloom(1000, 0.01))
	c.Warm([]string{"abc123", "def456"})

	if !c.MightContain("abc123") || !c.MightContain("def456") {
		t.Fatal("warmed codes must test positive")
	}

	// A bloom filter has no false negatives, only false positives; at this
	// size a miss on a fresh code is effectively certain.
	rejected := 0
	for _, code := range []string{"zzz999", "qqq111", "mmm222", "nnn333"} {
		if !c.MightContain(code) {
			rejected++
		}
	}
	if rejected == 0 {
		t.Fatal("expected unknown codes to be rejected")
	}
}

func TestLinkCache_RememberAddsFreshCodes(t *testing.T) {
	c := NewRedisLinkCache(nil, 0, WithBloom(1000, 0.01))
	c.Warm(nil)

	if c.MightContain("fresh1") {
		t.Fatal("fresh code should not test positive before Remember")
	}
	c.Remember("fresh1")
	if !c.MightContain("fresh1") {
		t.Fatal("remembered code must test positive")
	}
}

func TestLinkCache_WarmGrowsWithStore(t *testing.T) {
	c := NewRedisLinkCache(nil, 0, WithBloom(2, 0.01))

	codes := make([]string, 100)
	for i := range codes {
		codes[i] = string(rune('a'+i%26)) + string(rune('0'+i%10)) + "xx"
	}
	c.Warm(codes)

	for _, code := range codes {
		if !c.MightContain(code) {
			t.Fatalf("warmed code %q tested negative", code)
		}
	}
}
