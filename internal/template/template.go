// Package template fills {{key}} placeholders in prompt content.
//
// Keys match \w+. Malformed tokens such as "{{ key }}", "{{}}" or
// "{{a-b}}" are not placeholders and pass through untouched.
package template

import (
	"regexp"
	"strings"

	"github.com/nmang004/atlas-sub000/internal/models"
)

var variablePattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Assemble replaces every {{key}} that has a value in vars. Keys without a
// value stay as literal tokens.
func Assemble(content string, vars map[string]string) string {
	if len(vars) == 0 {
		return content
	}
	return variablePattern.ReplaceAllStringFunc(content, func(match string) string {
		key := match[2 : len(match)-2]
		if val, ok := vars[key]; ok {
			return val
		}
		return match
	})
}

// ExtractKeys returns the distinct keys in content in first-seen order.
func ExtractKeys(content string) []string {
	matches := variablePattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]bool, len(matches))
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			keys = append(keys, m[1])
			seen[m[1]] = true
		}
	}
	return keys
}

// MissingRequired lists required variables with no value or a blank one,
// in display order.
func MissingRequired(defs []models.PromptVariable, vars map[string]string) []string {
	var missing []string
	for _, def := range defs {
		if !def.IsRequired {
			continue
		}
		if strings.TrimSpace(vars[def.Key]) == "" {
			missing = append(missing, def.Key)
		}
	}
	return missing
}
