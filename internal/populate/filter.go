package populate

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html/atom"

	"github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
)

// Candidate is one proposed entry returned by a Generator.
type Candidate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Filter struct {
	rules  *Rules
	policy *bluemonday.Policy
}

func NewFilter(rules *Rules) *Filter {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Filter{rules: rules, policy: bluemonday.StrictPolicy()}
}

// Normalize turns a raw generated name into the form that is matched and stored.
// Entities are decoded before sanitizing so encoded markup is stripped like
// literal markup. Bracketed words that are not HTML names stay as text.
func (f *Filter) Normalize(kind catalog.Kind, raw string) string {
	s := escapeNonHTMLTags(unescapeAll(raw))
	s = html.UnescapeString(f.policy.Sanitize(s))
	s = strings.Join(strings.Fields(s), " ")
	s = truncateRunes(s, f.rules.For(kind).MaxLength)
	return strings.TrimSpace(s)
}

// Allowed reports whether a normalized name passes the kind's disallow list.
func (f *Filter) Allowed(kind catalog.Kind, name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	for _, bad := range f.rules.Common.Disallow {
		if bad != "" && strings.Contains(lower, bad) {
			return false
		}
	}
	for _, bad := range f.rules.For(kind).Disallow {
		if bad != "" && strings.Contains(lower, bad) {
			return false
		}
	}
	return true
}

// Apply normalizes candidates and drops empty, disallowed and repeated names.
// Order of first appearance is preserved.
func (f *Filter) Apply(kind catalog.Kind, in []Candidate) []Candidate {
	out := make([]Candidate, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		name := f.Normalize(kind, c.Name)
		if !f.Allowed(kind, name) {
			continue
		}
		k := strings.ToLower(name)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, Candidate{Name: name, Description: strings.TrimSpace(c.Description)})
	}
	return out
}

// unescapeAll decodes entities until the text stops changing, so that
// "&amp;lt;" cannot survive as "&lt;".
func unescapeAll(s string) string {
	for i := 0; i < 4; i++ {
		next := html.UnescapeString(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

// escapeNonHTMLTags escapes "<" when the word after it is not a known HTML
// element or attribute name, e.g. "C++ <Basics>".
func escapeNonHTMLTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] != '<' {
			b.WriteByte(s[i])
			continue
		}
		j := i + 1
		if j < len(s) && (s[j] == '/' || s[j] == '!' || s[j] == '?') {
			j++
		}
		k := j
		for k < len(s) && isTagNameByte(s[k]) {
			k++
		}
		if k > j && atom.Lookup([]byte(strings.ToLower(s[j:k]))) == 0 {
			b.WriteString("&lt;")
			continue
		}
		b.WriteByte('<')
	}
	return b.String()
}

func isTagNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-'
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
