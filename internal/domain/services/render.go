package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
)

// placeholderRegex matches {{key}} with optional inner spaces.
var placeholderRegex = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// RenderService substitutes variable values into template text.
// It only reads from the store and is safe for concurrent use.
type RenderService struct {
	store ports.StoreReader
}

// NewRenderService creates a new RenderService.
func NewRenderService(store ports.StoreReader) *RenderService {
	return &RenderService{store: store}
}

// Placeholders returns the distinct keys referenced by template, in order of
// first appearance.
func Placeholders(template string) []string {
	matches := placeholderRegex.FindAllStringSubmatch(template, -1)
	seen := make(map[string]bool, len(matches))
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}

// Render replaces every placeholder with the value effective at asOf (zero
// means now), formatted with its unit. The unit is left out when the template
// already writes it right after the placeholder. If any key cannot be resolved nothing
// is substituted and an *entities.UnresolvedVariableError lists them all.
func (s *RenderService) Render(ctx context.Context, template string, asOf time.Time) (string, error) {
	keys := Placeholders(template)
	if len(keys) == 0 {
		return template, nil
	}

	if asOf.IsZero() {
		asOf = now()
	}

	resolved, err := s.store.ResolveValues(ctx, keys, asOf)
	if err != nil {
		return "", fmt.Errorf("resolving variables: %w", err)
	}

	var missing []string
	for _, k := range keys {
		if _, ok := resolved[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return "", &entities.UnresolvedVariableError{Keys: missing}
	}

	var b strings.Builder
	last := 0
	for _, m := range placeholderRegex.FindAllStringSubmatchIndex(template, -1) {
		b.WriteString(template[last:m[0]])
		b.WriteString(formatBefore(resolved[template[m[2]:m[3]]], template[m[1]:]))
		last = m[1]
	}
	b.WriteString(template[last:])
	return b.String(), nil
}

// formatBefore formats rv for a placeholder followed by rest, dropping the
// unit or percent sign when rest starts with it.
func formatBefore(rv entities.ResolvedValue, rest string) string {
	formatted := rv.Formatted()
	suffix := strings.TrimSpace(strings.TrimPrefix(formatted, rv.Value))
	if suffix != "" && startsWithWord(rest, suffix) {
		return rv.Value
	}
	return formatted
}

// startsWithWord reports whether s, after leading blanks, begins with word
// not followed by another letter or digit.
func startsWithWord(s, word string) bool {
	s = strings.TrimLeft(s, " \t")
	if !strings.HasPrefix(s, word) {
		return false
	}
	next, size := utf8.DecodeRuneInString(s[len(word):])
	return size == 0 || !(unicode.IsLetter(next) || unicode.IsDigit(next))
}
