package domain

// DefaultMaxCitationChars bounds citation text to keep prompts small.
const DefaultMaxCitationChars = 1200

// Citation is a retrieved passage surfaced in a response.
type Citation struct {
	Score   float64
	Text    string
	DocID   *string
	LawName *string
	Owner   string
}

// Answer is the generated text together with the citations it was grounded on.
type Answer struct {
	Text      string
	Citations []Citation
}

// TruncateText cuts s to at most maxChars characters (runes). Not word-boundary aware.
func TruncateText(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}
