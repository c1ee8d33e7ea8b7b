package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "linux", "linux", 0},
		{"both empty", "", "", 0},
		{"empty left", "", "abc", 3},
		{"empty right", "abc", "", 3},
		{"classic", "kitten", "sitting", 3},
		{"single substitution", "klattu", "klaatu", 1},
		{"single deletion", "linx", "linux", 1},
		{"multibyte", "café", "cafe", 1},
		{"disjoint", "abc", "xyz", 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Distance(tc.a, tc.b))
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"kitten", "sitting"},
		{"hacker", "public radio"},
		{"", "episode"},
		{"xyzabc", "klaatu"},
	}

	for _, p := range pairs {
		assert.Equal(t, Distance(p[0], p[1]), Distance(p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestDistance_Identity(t *testing.T) {
	for _, s := range []string{"", "a", "Hacker Public Radio", "ünïcödé"} {
		assert.Zero(t, Distance(s, s), s)
	}
}
