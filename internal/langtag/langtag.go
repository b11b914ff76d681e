// Package langtag normalizes user-supplied language hints to the two-letter
// codes the transcription engine accepts.
package langtag

import (
	"strings"

	"golang.org/x/text/language"
)

// ToISO2 converts a language hint ("en", "en-US", "English"-style BCP 47
// input) to its ISO 639-1 base code. Returns "" for empty or unparseable
// input so callers can omit the engine flag and let it auto-detect.
func ToISO2(hint string) string {
	trimmed := strings.TrimSpace(hint)
	if trimmed == "" {
		return ""
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	code := base.String()
	if len(code) != 2 {
		return ""
	}
	return code
}
