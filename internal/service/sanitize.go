package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textSanitizer turns user input into plain text. Markup is dropped and the
// entities the policy emits are decoded again, so "5 < 6" survives unchanged.
type textSanitizer struct {
	policy *bluemonday.Policy
}

func newTextSanitizer() textSanitizer {
	return textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean strips tags and surrounding whitespace from input.
func (t textSanitizer) Clean(input string) string {
	return strings.TrimSpace(html.UnescapeString(t.policy.Sanitize(input)))
}
