package conversation

import (
	"strings"
	"unicode/utf8"
)

// Common Brazilian Portuguese sign-off phrases.
var farewellPhrases = []string{
	"tchau",
	"até logo",
	"até mais",
	"até amanhã",
	"obrigado",
	"obrigada",
	"valeu",
	"era só isso",
	"era so isso",
}

// Long messages that merely contain "obrigado" are usually mid-conversation,
// not a sign-off.
const maxFarewellLength = 80

// IsFarewell reports whether a message reads as the caller closing the
// conversation. Best-effort, like the name extractor.
func IsFarewell(message string) bool {
	if utf8.RuneCountInString(message) > maxFarewellLength {
		return false
	}
	lower := strings.ToLower(message)
	for _, phrase := range farewellPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
