package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dudlr/dudlr/internal/errs"
)

// MaxDisplayNameLen caps artist display names after normalization.
const MaxDisplayNameLen = 32

// Artist is a registered user linked to an external identity provider account.
type Artist struct {
	ID              string
	DisplayName     string
	ProvisionalName string
	AccountRef      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NameFrozen reports whether the artist has already spent their one rename.
// The provisional auto-assigned name is kept so the check survives restarts.
func (a Artist) NameFrozen() bool {
	return a.DisplayName != a.ProvisionalName
}

// NormalizeDisplayName trims and whitespace-collapses a requested name and
// enforces the length cap. Runs before any uniqueness check.
func NormalizeDisplayName(name string) (string, error) {
	normalized := strings.Join(strings.Fields(name), " ")
	if normalized == "" {
		return "", fmt.Errorf("%w: display name is empty", errs.ErrValidation)
	}
	if utf8.RuneCountInString(normalized) > MaxDisplayNameLen {
		return "", fmt.Errorf("%w: display name exceeds %d characters", errs.ErrValidation, MaxDisplayNameLen)
	}
	return normalized, nil
}
