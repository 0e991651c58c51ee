package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	cases := map[string]string{
		"":                                  "",
		"  plain  ":                         "plain",
		"<b>Great</b> food":                 "Great food",
		"<script>alert(1)</script>Tom's bar": "Tom's bar",
		"fish & chips":                      "fish & chips",
	}
	for in, want := range cases {
		assert.Equal(t, want, Text(in), "input %q", in)
	}
}

func TestRichText(t *testing.T) {
	out := RichText(`<p onclick="x()">Thanks <b>a lot</b>! <a href="https://example.com">Visit</a><script>bad()</script></p>`)
	assert.Contains(t, out, "<b>a lot</b>")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, "nofollow")
	assert.NotContains(t, out, "onclick")
	assert.False(t, strings.Contains(out, "<script"))
}
