package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"tender-scraper/models"
)

// Rule is one label-anchored pattern. Group selects the capture used as the
// value; 0 takes the whole match.
type Rule struct {
	Pattern *regexp.Regexp
	Group   int
	Valid   func(string) bool
}

// Match returns the trimmed capture when the pattern matches and passes Valid.
func (r Rule) Match(text string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil || r.Group >= len(m) {
		return "", false
	}
	v := strings.TrimSpace(m[r.Group])
	if v == "" {
		return "", false
	}
	if r.Valid != nil && !r.Valid(v) {
		return "", false
	}
	return v, true
}

// Chain is an ordered rule list; the first match wins.
type Chain []Rule

// Apply runs the rules in order against text.
func (c Chain) Apply(text string) (string, bool) {
	for _, r := range c {
		if v, ok := r.Match(text); ok {
			return v, true
		}
	}
	return "", false
}

// Field binds a chain to the ExtractedFields member it fills.
type Field struct {
	Chain  Chain
	MaxLen int
	Set    func(f *models.ExtractedFields, v string)
}

// apply evaluates one field. A panic inside a rule leaves the default.
func (fd Field) apply(doc *Document, out *models.ExtractedFields) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	v, ok := fd.Chain.Apply(doc.Text)
	if !ok {
		return false
	}
	fd.Set(out, capRunes(v, fd.MaxLen))
	return true
}

func capRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}

// re compiles a case-insensitive pattern.
func re(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
