package random

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String(32)
	if len(s) != 32 {
		t.Fatalf("expected 32 characters, got %d", len(s))
	}
	for _, c := range s {
		if !strings.ContainsRune(charset, c) {
			t.Fatalf("character %q outside the charset", c)
		}
	}
}

func TestStringSecure(t *testing.T) {
	s, err := StringSecure(26)
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 26 {
		t.Fatalf("expected 26 characters, got %d", len(s))
	}
	for _, c := range s {
		if !strings.ContainsRune(charset, c) {
			t.Fatalf("character %q outside the charset", c)
		}
	}
}

func TestSeededIsReproducible(t *testing.T) {
	a := Seeded(7)
	b := Seeded(7)
	for i := 0; i < 20; i++ {
		if x, y := a.Intn(1000), b.Intn(1000); x != y {
			t.Fatalf("draw %d diverged: %d vs %d", i, x, y)
		}
	}
}
