package document

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	frontmatterPattern = regexp.MustCompile(`(?s)\A---\r?\n(.*?)\r?\n---(?:\r?\n|\z)`)
	// A hashtag starts the text or follows whitespace, so headings ("# Title")
	// and fragments like "C#" are not tags.
	hashtagPattern = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_/-]+)`)
)

type frontmatter struct {
	Tags yaml.Node `yaml:"tags"`
}

// ExtractTags returns the frontmatter tags followed by the inline hashtags of
// content, de-duplicated in first-seen order. The result is never nil.
func ExtractTags(content string) []string {
	tags := make([]string, 0)
	seen := make(map[string]struct{})
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	body := content
	if m := frontmatterPattern.FindStringSubmatchIndex(content); m != nil {
		for _, tag := range frontmatterTags(content[m[2]:m[3]]) {
			add(tag)
		}
		body = content[m[1]:]
	}

	for _, match := range hashtagPattern.FindAllStringSubmatch(body, -1) {
		add(match[1])
	}
	return tags
}

// frontmatterTags reads "tags" as a YAML sequence or a single scalar. Invalid
// YAML yields no tags.
func frontmatterTags(raw string) []string {
	var fm frontmatter
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return nil
	}

	switch fm.Tags.Kind {
	case yaml.ScalarNode:
		return []string{fm.Tags.Value}
	case yaml.SequenceNode:
		tags := make([]string, 0, len(fm.Tags.Content))
		for _, item := range fm.Tags.Content {
			if item.Kind == yaml.ScalarNode {
				tags = append(tags, item.Value)
			}
		}
		return tags
	}
	return nil
}
