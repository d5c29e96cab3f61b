package extract

import (
	"strings"
	"unicode"
)

// Normalize prepares extracted text for chunking: line endings become "\n",
// runs of horizontal whitespace collapse to one space, trailing spaces on each
// line are dropped, more than one blank line collapses to one, and the result
// is trimmed. Paragraph breaks survive so the splitter can prefer them.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	newlines := 0
	for _, r := range text {
		switch {
		case r == '\n':
			pendingSpace = false
			newlines++
		case unicode.IsSpace(r):
			pendingSpace = true
		default:
			if b.Len() > 0 {
				switch {
				case newlines > 1:
					b.WriteString("\n\n")
				case newlines == 1:
					b.WriteByte('\n')
				case pendingSpace:
					b.WriteByte(' ')
				}
			}
			newlines = 0
			pendingSpace = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
