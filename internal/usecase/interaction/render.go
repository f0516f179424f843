package interaction

import (
	"fmt"
	"strings"
	"unicode/utf8"

	dominteraction "github.com/kailas-cloud/patternbot/internal/domain/interaction"
	dompattern "github.com/kailas-cloud/patternbot/internal/domain/pattern"
)

const introLine = "Here are the patterns matching your query:\n\n"

// Render formats a filtered document as message content that fits the
// platform limit. Entries that do not fit are summarized in a trailing line.
// An empty document renders as the intro line alone.
func Render(doc dompattern.Document) string {
	return render(doc, dominteraction.MaxContentLength)
}

func render(doc dompattern.Document, limit int) string {
	entries := doc.Entries()

	var b strings.Builder
	b.WriteString(introLine)
	used := utf8.RuneCountInString(introLine)

	for i, e := range entries {
		block := entryBlock(e)
		size := utf8.RuneCountInString(block)
		remaining := len(entries) - i - 1

		reserve := 0
		if remaining > 0 {
			reserve = utf8.RuneCountInString(moreLine(remaining))
		}
		if used+size+reserve <= limit {
			b.WriteString(block)
			used += size
			continue
		}

		if i == 0 {
			b.WriteString(truncatedBlock(e, limit-used-reserve))
		} else {
			remaining++
		}
		if remaining > 0 {
			b.WriteString(moreLine(remaining))
		}
		break
	}

	return b.String()
}

func entryBlock(e dompattern.Entry) string {
	return entryHead(e) + e.Pattern + entryTail
}

func entryHead(e dompattern.Entry) string {
	return "**Pattern Key:** " + e.Key + "\n```regex\n"
}

const entryTail = "\n```\n\n"

func moreLine(n int) string {
	return fmt.Sprintf("...and %d more.", n)
}

// truncatedBlock shortens the pattern, and the key if needed, so the block
// fits in limit runes. The code fence is always closed.
func truncatedBlock(e dompattern.Entry, limit int) string {
	fixed := utf8.RuneCountInString(entryHead(dompattern.Entry{})) + utf8.RuneCountInString(entryTail)
	keyRunes := utf8.RuneCountInString(e.Key)

	room := limit - fixed - keyRunes - 1
	if room >= 0 {
		return entryHead(e) + truncateRunes(e.Pattern, room) + "…" + entryTail
	}

	keyRoom := max(limit-fixed-2, 0)
	key := e.Key
	if keyRunes > keyRoom {
		key = truncateRunes(key, keyRoom) + "…"
	}
	return entryHead(dompattern.Entry{Key: key}) + "…" + entryTail
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
