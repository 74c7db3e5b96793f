package irc

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/soyeahso/imbridge/internal/domain"
)

// maxLineLen keeps PRIVMSG lines clear of the 512-byte IRC limit once the
// prefix and target are added.
const maxLineLen = 400

// minChunkLen is the least message text carried per line. Longer heads are
// shortened to leave room for it.
const minChunkLen = 64

func prefix(ic *domain.ConnectionContext) string {
	return "[" + ic.AccountID + "] "
}

func formatBuddy(ic *domain.ConnectionContext, name, group string, added bool) string {
	verb := "joined"
	if !added {
		verb = "left"
	}
	line := fmt.Sprintf("%s*** %s %s your buddy list", prefix(ic), name, verb)
	if group != "" {
		line += " (" + group + ")"
	}
	return line
}

// formatMessage renders an incoming chat entry, one IRC line per line of text.
func formatMessage(ic *domain.ConnectionContext, name, message string) []string {
	head := fmt.Sprintf("%s<%s> ", prefix(ic), name)
	if len(head) > maxLineLen-minChunkLen {
		head = truncate(head, maxLineLen-minChunkLen-2) + "> "
	}
	var lines []string
	for _, chunk := range splitMessage(message, maxLineLen-len(head)) {
		lines = append(lines, head+chunk)
	}
	return lines
}

func formatError(ic *domain.ConnectionContext, reason string) string {
	return prefix(ic) + "error: " + reason
}

func formatDisconnected(ic *domain.ConnectionContext, allowReconnect bool) string {
	line := prefix(ic) + "*** disconnected"
	if allowReconnect {
		line += " (reconnect allowed)"
	}
	return line
}

func formatConnected(ic *domain.ConnectionContext) string {
	return prefix(ic) + "*** connected"
}

func formatStatus(s domain.AccountStatus) string {
	return fmt.Sprintf("[%s] %s, %d buddies", s.AccountID, s.State, s.Buddies)
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// splitMessage breaks text into chunks suitable for IRC. Each newline
// starts a new chunk because PRIVMSG cannot carry one, and lines longer
// than maxLen bytes are cut on a rune boundary.
func splitMessage(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = maxLineLen
	}
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		for len(line) > maxLen {
			cut := maxLen
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxLen
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		chunks = append(chunks, line)
	}
	return chunks
}
