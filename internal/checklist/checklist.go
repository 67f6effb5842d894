// Package checklist turns a prompt's review-checklist markdown into items.
package checklist

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

type Item struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

var (
	taskPattern    = regexp.MustCompile(`^[-*+]\s+\[([ xX])\]\s+(.+)$`)
	bulletPattern  = regexp.MustCompile(`^[-*+]\s+(.+)$`)
	orderedPattern = regexp.MustCompile(`^\d+[.)]\s+(.+)$`)

	strict = bluemonday.StrictPolicy()

	// Only entities that cannot form markup are decoded; &lt; and &gt;
	// stay escaped.
	plainEntities = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`, "&quot;", `"`)
)

// Parse reads task items ("- [ ] x", "- [x] x"), bullets and numbered
// lines. Headings, prose and blank lines are skipped, as are items whose
// text is empty once markup is stripped.
func Parse(markdown string) []Item {
	var items []Item
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var item Item
		if m := taskPattern.FindStringSubmatch(line); m != nil {
			item = Item{Text: m[2], Checked: m[1] != " "}
		} else if m := bulletPattern.FindStringSubmatch(line); m != nil {
			item = Item{Text: m[1]}
		} else if m := orderedPattern.FindStringSubmatch(line); m != nil {
			item = Item{Text: m[1]}
		} else {
			continue
		}

		item.Text = sanitize(item.Text)
		if item.Text == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

func sanitize(text string) string {
	return strings.TrimSpace(plainEntities.Replace(strict.Sanitize(text)))
}
