package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	md := `## Before publishing

- [ ] Output cites its sources
- [x] Tone matches the brand guide
* Works with <b>long</b> inputs
1. Checked by a second reviewer
2) Q&A section present

Some closing prose.
- <script>alert(1)</script>
`

	items := Parse(md)

	assert.Equal(t, []Item{
		{Text: "Output cites its sources"},
		{Text: "Tone matches the brand guide", Checked: true},
		{Text: "Works with long inputs"},
		{Text: "Checked by a second reviewer"},
		{Text: "Q&A section present"},
	}, items)
}

func TestParseKeepsEscapedMarkupInert(t *testing.T) {
	items := Parse("- [ ] &lt;img src=x onerror=alert(1)&gt; check output\n- it's \"quoted\" <i>text</i>")

	assert.Equal(t, []Item{
		{Text: "&lt;img src=x onerror=alert(1)&gt; check output"},
		{Text: `it's "quoted" text`},
	}, items)
	for _, item := range items {
		assert.NotContains(t, item.Text, "<")
	}
}

func TestParseEmpty(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("just a paragraph\nand another"))
}
