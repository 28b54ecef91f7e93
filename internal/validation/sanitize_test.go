package validation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeInputRemovesMarkup(t *testing.T) {
	out := SanitizeInput("<script>alert(1)</script>Nguyễn")
	assert.NotContains(t, out, "<")
	assert.NotContains(t, out, ">")
	assert.NotContains(t, strings.ToLower(out), "script")
	assert.Contains(t, out, "Nguyễn")
}

func TestSanitizeInputStripsEventHandlersAndProtocols(t *testing.T) {
	out := SanitizeInput(`javascript:alert(1) onClick=bad hello`)
	lower := strings.ToLower(out)
	assert.NotContains(t, lower, "javascript:")
	assert.NotContains(t, lower, "onclick=")
	assert.Contains(t, out, "hello")
}

func TestSanitizeInputPreservesVietnameseDiacritics(t *testing.T) {
	name := "Nguyễn Văn A"
	assert.Equal(t, name, SanitizeInput(name))
}

func TestSanitizeInputNestedScriptTokens(t *testing.T) {
	// Removing one "script" run must not reassemble another.
	out := SanitizeInput("scrscriptipt")
	assert.NotContains(t, strings.ToLower(out), "script")
}

func TestSanitizeInputWhitelistCannotRejoinScript(t *testing.T) {
	// The whitelist deletes the symbol splitting the word, which would
	// reassemble it if nothing ran afterwards.
	for _, input := range []string{"scr~ipt", "s~c~r~i~p~t", "SCR@IPT alert"} {
		out := SanitizeInput(input)
		assert.NotContains(t, strings.ToLower(out), "script", "input %q", input)
	}
}

func TestSanitizeInputLengthBound(t *testing.T) {
	long := strings.Repeat("ầ", DefaultMaxLength+100)
	out := SanitizeInput(long)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), DefaultMaxLength)
}

func TestSanitizeInputCustomMaxLength(t *testing.T) {
	out := SanitizeInput(strings.Repeat("a", 100), SanitizeOptions{MaxLength: 10})
	assert.Equal(t, 10, utf8.RuneCountInString(out))
}

func TestSanitizeInputRoomLabelSkipsWhitelist(t *testing.T) {
	out := SanitizeInput("Phòng #12/A", SanitizeOptions{SkipCharacterWhitelist: true, MaxLength: 50})
	assert.Equal(t, "Phòng #12/A", out)
}

func TestSanitizeInputWhitelistDropsSymbols(t *testing.T) {
	out := SanitizeInput("đau bụng #cấp $tính")
	assert.NotContains(t, out, "#")
	assert.NotContains(t, out, "$")
	assert.Contains(t, out, "đau bụng")
}

func TestSanitizeInputEmpty(t *testing.T) {
	assert.Equal(t, "", SanitizeInput(""))
	assert.Equal(t, "", SanitizeInput("   "))
}
