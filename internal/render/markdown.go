package render

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// headerPattern matches the "[some-header] -" prefix emitted by upstream
// producers, e.g. "[db-error] - reason: disk full".
var headerPattern = regexp.MustCompile(`^\[(.*?)\] -`)

// markdownSpecial matches the characters Telegram's MarkdownV2 dialect
// requires to be backslash-escaped.
var markdownSpecial = regexp.MustCompile("([_*\\[\\]()~`>#+\\-=|{}.!])")

// FormatTelegramMarkdown reformats notification text line by line for
// Telegram-style markdown rendering:
//
//   - A "[header] - rest" line is split: the header (dashes replaced with
//     spaces, first letter upper-cased) becomes its own bold line, and the
//     rest is processed as the remainder of the line.
//   - A line containing a colon is split on the first colon; the key is
//     escaped and emitted bold, the value follows verbatim.
//   - Any other line passes through unchanged.
//
// Line order is preserved and lines are rejoined with newlines.
func FormatTelegramMarkdown(text string) string {
	var formatted []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "[") && strings.Contains(line, "] - ") {
			if m := headerPattern.FindStringSubmatch(line); m != nil {
				header := upperFirst(strings.ReplaceAll(m[1], "-", " "))
				formatted = append(formatted, "*"+header+"*")
				line = strings.TrimSpace(strings.Replace(line, m[0], "", 1))
			}
		}

		if idx := strings.Index(line, ":"); idx >= 0 {
			key := strings.TrimSpace(line[:idx])
			value := strings.TrimSpace(line[idx+1:])
			escaped := markdownSpecial.ReplaceAllString(key, `\$1`)
			formatted = append(formatted, "*"+escaped+":* "+value)
		} else {
			formatted = append(formatted, line)
		}
	}
	return strings.Join(formatted, "\n")
}

// upperFirst upper-cases the first rune of s.
func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
