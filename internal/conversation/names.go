package conversation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Self-introduction phrasings in Brazilian Portuguese, most specific first.
// The first match wins.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)meu nome [ée]\s+([^.,!?\n]+)`),
	regexp.MustCompile(`(?i)me chamo\s+([^.,!?\n]+)`),
	regexp.MustCompile(`(?i)chamo-me\s+([^.,!?\n]+)`),
	regexp.MustCompile(`(?i)\beu sou\s+(?:[oa]\s+)?([^.,!?\n]+)`),
	regexp.MustCompile(`(?i)\bsou\s+[oa]\s+([^.,!?\n]+)`),
}

// Question words disqualify a candidate: "qual é o seu nome?" must not be
// read as an introduction.
var nameDisqualifiers = []string{
	"qual", "quando", "como", "onde", "quem", "por que", "porque", "?",
}

const maxNameLength = 50

// ExtractCallerName scans a message for a Portuguese self-introduction and
// returns the caller's name. This is a best-effort heuristic, not an
// authoritative identity source: it stops at the first matching pattern and
// rejects implausible candidates.
func ExtractCallerName(message string) (string, bool) {
	for _, pattern := range namePatterns {
		m := pattern.FindStringSubmatch(message)
		if len(m) < 2 {
			continue
		}

		candidate := strings.TrimSpace(m[1])
		if candidate == "" {
			continue
		}
		if utf8.RuneCountInString(candidate) > maxNameLength {
			continue
		}
		lower := strings.ToLower(candidate)
		if containsAny(lower, nameDisqualifiers) {
			continue
		}
		return candidate, true
	}
	return "", false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
