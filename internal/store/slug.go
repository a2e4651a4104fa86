// ABOUTME: Slug derivation and uniqueness for posts and terms
// ABOUTME: Collisions are resolved by appending -2, -3, ... to the base slug

package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// Slugify lowercases s and collapses every run of characters other than
// letters and digits into a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// maxSlugAttempts bounds the suffix search.
const maxSlugAttempts = 1000

// uniqueSlug returns base, or base with the smallest numeric suffix for
// which taken reports false.
func uniqueSlug(base string, taken func(candidate string) (bool, error)) (string, error) {
	if base == "" {
		base = "untitled"
	}
	candidate := base
	for i := 2; i <= maxSlugAttempts; i++ {
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
	return "", conflict("Could not find a free slug for '" + base + "'")
}

func rowExists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
