package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIRC2Markdown(t *testing.T) {
	tests := map[string]string{
		"plain":                         "plain",
		"\x02bold\x02":                  "**bold**",
		"\x1ditalic\x1d":                "_italic_",
		"\x11mono\x11":                  "`mono`",
		"\x02\x1dboth\x1d\x02":          "**_both_**",
		"\x02unclosed":                  "**unclosed**",
		"\x02bold\x1d italic\x0f reset": "**bold_ italic_** reset",
		"\x1funder\x1f\x1estrike\x1e":   "understrike",
	}

	for in, want := range tests {
		assert.Equal(t, want, irc2markdown(in), "%q", in)
	}
}

func TestMarkdown2IRC(t *testing.T) {
	tests := map[string]string{
		"plain":           "plain",
		"**bold**":        "\x02bold\x02",
		"*italic*":        "\x1ditalic\x1d",
		"_italic_":        "\x1ditalic\x1d",
		"***both***":      "\x02\x1dboth\x1d\x02",
		"snake_case_name": "snake_case_name",
	}

	for in, want := range tests {
		assert.Equal(t, want, markdown2irc(in), "%q", in)
	}
}

func TestStripColors(t *testing.T) {
	assert.Equal(t, "red on blue", stripColors("\x0304,12red on blue\x03"))
	assert.Equal(t, "hex", stripColors("\x04ff0000hex"))
}
