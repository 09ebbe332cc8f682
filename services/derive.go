package services

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// wordsPerMinute is the fixed reading rate used for read-time
	// estimates.
	wordsPerMinute = 200

	// excerptLength is how much of the content a derived excerpt keeps
	// before the ellipsis marker.
	excerptLength = 150
)

// SlugLookup reports whether a candidate slug is already taken. When a
// post is being updated the implementation is expected to exclude that
// post's own slug from the check.
type SlugLookup func(ctx context.Context, slug string) (bool, error)

// Slugify normalizes a title to a URL-safe token: lowercase, runs of
// anything that is not a letter or digit collapse to a single hyphen,
// and edge hyphens are trimmed.
func Slugify(title string) string {
	var result strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && result.Len() > 0 {
				result.WriteByte('-')
			}
			pendingHyphen = false
			result.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	return result.String()
}

// DeriveSlug turns a title into a collection-unique slug. If lookup
// reports the normalized candidate as taken, a millisecond timestamp
// suffix is appended and accepted without a second check; the unique
// index on the collection is the real guarantee, with the insert path
// retrying once on a duplicate-key conflict.
func DeriveSlug(ctx context.Context, title string, lookup SlugLookup) (string, error) {
	slug := Slugify(title)

	taken, err := lookup(ctx, slug)
	if err != nil {
		return "", err
	}
	if taken {
		slug = ResuffixSlug(slug)
	}

	return slug, nil
}

// ResuffixSlug appends a fresh millisecond timestamp suffix to a base
// slug. Callers pass the unsuffixed form so retries never stack
// suffixes.
func ResuffixSlug(slug string) string {
	return fmt.Sprintf("%s-%d", slug, time.Now().UnixMilli())
}

// DeriveReadTime estimates minutes to read content at a fixed rate,
// rounded up. Never returns less than 1, even for empty content.
func DeriveReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// DeriveExcerpt returns the author-supplied excerpt when present, or
// the first 150 bytes of content plus an ellipsis marker. The slice is
// byte-offset, not word-boundary aware, matching the stored form.
func DeriveExcerpt(content, suppliedExcerpt string) string {
	if strings.TrimSpace(suppliedExcerpt) != "" {
		return suppliedExcerpt
	}
	if len(content) > excerptLength {
		content = content[:excerptLength]
	}
	return content + "..."
}

// NormalizeTags trims each tag and drops blanks and duplicates while
// preserving first-seen order.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
	}
	return normalized
}
