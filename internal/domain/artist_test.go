package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/dudlr/dudlr/internal/errs"
)

func TestNormalizeDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Alice", want: "Alice"},
		{name: "trimmed", input: "  Alice  ", want: "Alice"},
		{name: "collapsed whitespace", input: "Alice \t  the   Doodler", want: "Alice the Doodler"},
		{name: "max length kept", input: strings.Repeat("a", MaxDisplayNameLen), want: strings.Repeat("a", MaxDisplayNameLen)},
		{name: "multibyte counted as runes", input: strings.Repeat("ö", MaxDisplayNameLen), want: strings.Repeat("ö", MaxDisplayNameLen)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDisplayName(tt.input)
			if err != nil {
				t.Fatalf("NormalizeDisplayName(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("NormalizeDisplayName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeDisplayNameRejects(t *testing.T) {
	for _, input := range []string{"", "   ", strings.Repeat("a", MaxDisplayNameLen+1), strings.Repeat("ö", MaxDisplayNameLen+1)} {
		if _, err := NormalizeDisplayName(input); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("NormalizeDisplayName(%q) error = %v, want ErrValidation", input, err)
		}
	}
}

func TestArtistNameFrozen(t *testing.T) {
	artist := Artist{DisplayName: "dudlr-1234", ProvisionalName: "dudlr-1234"}
	if artist.NameFrozen() {
		t.Fatalf("unrenamed artist reported frozen")
	}
	artist.DisplayName = "Alice"
	if !artist.NameFrozen() {
		t.Fatalf("renamed artist not reported frozen")
	}
}

func TestDoodlePhase(t *testing.T) {
	d := Doodle{}
	if d.Phase() != PhaseAccumulating {
		t.Fatalf("new doodle phase = %v, want accumulating", d.Phase())
	}
	d.Complete = true
	if d.Phase() != PhaseFinalized {
		t.Fatalf("complete doodle phase = %v, want finalized", d.Phase())
	}
}
