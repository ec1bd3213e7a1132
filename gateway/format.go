package gateway

import (
	"regexp"
)

// https://modern.ircdocs.horse/formatting.html#color
var colorRegExp = regexp.MustCompile(`\x03([019]?[0-9](,[019]?[0-9])?)?`)

// https://modern.ircdocs.horse/formatting.html#hex-color
var hexColorRegExp = regexp.MustCompile(`\x04[0-9a-fA-F]{6}`)

func stripColors(msg string) string {
	msg = colorRegExp.ReplaceAllString(msg, "")
	return hexColorRegExp.ReplaceAllString(msg, "")
}

// IRC emphasis codes and their markdown counterpart, the reset code closes
// everything that is still open.
var ircEmphasis = map[byte]string{
	'\x02': "**", // bold
	'\x1d': "_",  // italics
	'\x11': "`",  // monospace
}

// dropped, markdown has no equivalent
var ircUnsupported = map[byte]bool{
	'\x1f': true, // underline
	'\x1e': true, // strikethrough
	'\x16': true, // reverse color
}

func irc2markdown(msg string) string {
	var (
		buf  []byte
		open []byte
	)

	closeAll := func() {
		for _, c := range open {
			buf = append(buf, ircEmphasis[c]...)
		}
		open = nil
	}

	for _, char := range []byte(msg) {
		if ircUnsupported[char] {
			continue
		}

		if char == '\x0f' {
			closeAll()
			continue
		}

		emp, ok := ircEmphasis[char]
		if !ok {
			buf = append(buf, char)
			continue
		}

		buf = append(buf, emp...)

		// codes come in pairs, a second one closes the first
		idx := -1
		for i, c := range open {
			if c == char {
				idx = i
				break
			}
		}

		if idx >= 0 {
			open = append(open[:idx:idx], open[idx+1:]...)
			continue
		}

		open = append([]byte{char}, open...)
	}

	closeAll()

	return string(buf)
}

type emphasisRule struct {
	re   *regexp.Regexp
	repl string
}

// Order matters, bold+italic has to match before bold, bold before italic.
// https://www.markdownguide.org/basic-syntax#bold-and-italic
var markdownEmphasis = []emphasisRule{
	{regexp.MustCompile(`(?:\*\*\*)+?(.+?)(?:\*\*\*)+?`), "\x02\x1d$1\x1d\x02"},
	{regexp.MustCompile(`\b(?:\_\_\_)+?(.+?)(?:\_\_\_)+?\b`), "\x02\x1d$1\x1d\x02"},
	{regexp.MustCompile(`\b(?:\_\_\*)+?(.+?)(?:\*\_\_)+?\b`), "\x02\x1d$1\x1d\x02"},
	{regexp.MustCompile(`\b(?:\*\*\_)+?(.+?)(?:\_\*\*)+?\b`), "\x02\x1d$1\x1d\x02"},
	{regexp.MustCompile(`(?:\*\*)+?(.+?)(?:\*\*)+?`), "\x02$1\x02"},
	{regexp.MustCompile(`\b(?:\_\_)+?(.+?)(?:\_\_)+?\b`), "\x02$1\x02"},
	{regexp.MustCompile(`(?:\*)+?([^\*]+?)(?:\*)+?`), "\x1d$1\x1d"},
	{regexp.MustCompile(`\b(?:\_)+?([^_]+?)(?:\_)+?\b`), "\x1d$1\x1d"},
}

func markdown2irc(msg string) string {
	for _, rule := range markdownEmphasis {
		msg = rule.re.ReplaceAllString(msg, rule.repl)
	}

	return msg
}
