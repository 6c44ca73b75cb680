package process

import (
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
)

// StripFrontMatter removes a leading YAML ("---") or TOML ("+++") front
// matter block. Text that does not open with a delimiter line is returned
// unchanged with a nil map.
func StripFrontMatter(text string) (string, map[string]interface{}, error) {
	if !hasFrontMatterDelimiter(text) {
		return text, nil, nil
	}

	var meta map[string]interface{}
	body, err := frontmatter.Parse(strings.NewReader(text), &meta)
	if err != nil {
		return "", nil, fmt.Errorf("parse front matter: %w", err)
	}
	if len(meta) == 0 {
		meta = nil
	}
	return string(body), meta, nil
}

func hasFrontMatterDelimiter(text string) bool {
	first, _, _ := strings.Cut(text, "\n")
	first = strings.TrimSpace(first)
	return first == "---" || first == "+++"
}

// FrontMatterTitle returns the string "title" key, if any.
func FrontMatterTitle(meta map[string]interface{}) string {
	if title, ok := meta["title"].(string); ok {
		return strings.TrimSpace(title)
	}
	return ""
}
