package validation

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength bounds sanitized free-text fields.
const DefaultMaxLength = 1000

// SanitizeOptions tunes SanitizeInput. The zero value means: whitelist
// active, DefaultMaxLength.
type SanitizeOptions struct {
	SkipCharacterWhitelist bool
	MaxLength              int
}

var (
	angleBracketRe = regexp.MustCompile(`[<>]`)
	jsProtocolRe   = regexp.MustCompile(`(?i)javascript:`)
	eventAttrRe    = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	scriptWordRe   = regexp.MustCompile(`(?i)script`)

	// Word characters, whitespace, Latin-extended ranges covering Vietnamese,
	// combining diacritics, and a small punctuation set.
	disallowedRe = regexp.MustCompile(`[^\w\s\x{00C0}-\x{1EF9}\x{0300}-\x{036F}.,!?()/\-]`)
)

// SanitizeInput cleans raw user text for storage. Leading whitespace is
// stripped but trailing is preserved so active typing is not fought.
// Normalization to NFC happens before the character whitelist, otherwise
// combining diacritical marks in Vietnamese text would be stripped away
// from correct letters.
func SanitizeInput(input string, opts ...SanitizeOptions) string {
	var o SanitizeOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.MaxLength <= 0 {
		o.MaxLength = DefaultMaxLength
	}

	out := strings.TrimLeftFunc(input, unicode.IsSpace)
	out = angleBracketRe.ReplaceAllString(out, "")
	out = jsProtocolRe.ReplaceAllString(out, "")
	out = eventAttrRe.ReplaceAllString(out, "")

	out = norm.NFC.String(out)

	// Post-normalization: composing marks can no longer hide the word.
	out = angleBracketRe.ReplaceAllString(out, "")
	out = stripScriptWord(out)

	if !o.SkipCharacterWhitelist {
		out = disallowedRe.ReplaceAllString(out, "")
		// Deleting a disallowed rune can splice the forbidden word back
		// together ("scr~ipt"), so strip once more after the whitelist.
		out = stripScriptWord(out)
	}

	runes := []rune(out)
	if len(runes) > o.MaxLength {
		out = string(runes[:o.MaxLength])
	}
	return out
}

// stripScriptWord deletes every case-insensitive "script" run, repeating
// because removing one occurrence may expose another ("scrscriptipt").
func stripScriptWord(s string) string {
	for scriptWordRe.MatchString(s) {
		s = scriptWordRe.ReplaceAllString(s, "")
	}
	return s
}
