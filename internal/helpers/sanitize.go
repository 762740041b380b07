package helpers

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy

	emailPolicyOnce sync.Once
	emailPolicy     *bluemonday.Policy
)

// StrictHTMLPolicy returns a singleton bluemonday policy that strips every HTML
// element and attribute, leaving plain text.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// EmailHTMLPolicy returns a policy suited to HTML email bodies rendered from
// markdown. It allows the usual formatting tags (headings, paragraphs, lists,
// emphasis, code blocks, tables, links) while removing scripts, event handlers
// and unsafe URL schemes. The policy is cached because building one is not
// cheap and report rendering happens on every run.
func EmailHTMLPolicy() *bluemonday.Policy {
	emailPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowElements("table", "thead", "tbody", "tr", "th", "td")
		policy.AllowAttrs("class").OnElements("code", "pre")
		policy.AllowURLSchemes("http", "https", "mailto")
		policy.RequireParseableURLs(true)
		emailPolicy = policy
	})
	return emailPolicy
}

// SanitizeHTMLStrict removes every HTML tag from s while stripping leading and
// trailing whitespace.
func SanitizeHTMLStrict(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(StrictHTMLPolicy().Sanitize(s))
}

// SanitizeEmailHTML cleans an HTML fragment destined for an email body,
// preserving formatting tags while dropping anything executable.
func SanitizeEmailHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(EmailHTMLPolicy().Sanitize(s))
}
