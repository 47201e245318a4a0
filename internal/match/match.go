// Package match decides whether a claimed name appears on a certificate page
package match

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/verifyhub/internal/model"
)

// minTokenLen drops initials and short particles ("jo", "de") that would
// match almost any page
const minTokenLen = 3

// Normalize lowercases s, replaces every character outside [a-z0-9] and
// whitespace with a space, collapses whitespace runs and trims.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	lower := strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// NameTokens returns the normalized name tokens long enough to match on
func NameTokens(fullName string) []string {
	var tokens []string
	for _, tok := range strings.Split(Normalize(fullName), " ") {
		if len(tok) >= minTokenLen {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Matcher tests a claimed name against certificate text
type Matcher struct {
	ownership *regexp.Regexp
	label     string
}

// NewMatcher builds a matcher whose ownership context is any of the given phrases
func NewMatcher(ownershipPhrases []string, certificateLabel string) (*Matcher, error) {
	m := &Matcher{label: certificateLabel}

	quoted := make([]string, 0, len(ownershipPhrases))
	for _, p := range ownershipPhrases {
		if p = strings.TrimSpace(p); p != "" {
			quoted = append(quoted, regexp.QuoteMeta(p))
		}
	}
	if len(quoted) > 0 {
		re, err := regexp.Compile("(?i)" + strings.Join(quoted, "|"))
		if err != nil {
			return nil, fmt.Errorf("compile ownership pattern: %w", err)
		}
		m.ownership = re
	}

	return m, nil
}

// Match returns Confirmed when any name token appears in the normalized page,
// Refuted when none does but the raw page names some recipient, and Unknown
// when there is not enough signal to decide.
func (m *Matcher) Match(claimedFullName, page string) model.TriState {
	tokens := NameTokens(claimedFullName)
	normalizedPage := Normalize(page)
	if len(tokens) == 0 || normalizedPage == "" {
		return model.Unknown
	}

	for _, tok := range tokens {
		if strings.Contains(normalizedPage, tok) {
			return model.Confirmed
		}
	}

	if m.ownership != nil && m.ownership.MatchString(page) {
		return model.Refuted
	}
	return model.Unknown
}

// MismatchError is the error reported alongside a Refuted match
func (m *Matcher) MismatchError() string {
	return fmt.Sprintf("Name mismatch: your profile name was not found on the %s certificate page.", m.label)
}
