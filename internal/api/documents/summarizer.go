package documents

import "strings"

// summarizeText is a deliberately trivial stub: it keeps the first
// three sentences of the input and drops the rest. Inputs of three or
// fewer sentences pass through unchanged.
func summarizeText(text string) string {
	split := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var sentences []string
	for _, s := range split {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) <= 3 {
		return text
	}

	return strings.Join(sentences[:3], ". ") + "."
}
