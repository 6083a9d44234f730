package app

import (
	"strings"
	"unicode"
)

const maxTracedQueryLength = 512

// formatDBQueryForTrace collapses whitespace and masks quoted literals,
// since member names and emails show up in ad-hoc statements.
func formatDBQueryForTrace(query string) string {
	var b strings.Builder
	b.Grow(min(len(query), maxTracedQueryLength+3))

	inLiteral, justClosed, pendingSpace := false, false, false
	for _, r := range strings.TrimSpace(query) {
		reopen := justClosed && r == '\''
		justClosed = false
		switch {
		case inLiteral:
			inLiteral = r != '\''
			justClosed = !inLiteral
			continue
		case reopen:
			// Escaped quote inside the literal that was just masked.
			inLiteral = true
			continue
		case r == '\'':
			inLiteral = true
			r = '?'
		case unicode.IsSpace(r):
			pendingSpace = true
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
		if b.Len() > maxTracedQueryLength {
			break
		}
	}

	out := b.String()
	if len(out) > maxTracedQueryLength {
		return out[:maxTracedQueryLength] + "..."
	}
	return out
}
