package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"single hashtag", "This is a #test document.", []string{"test"}},
		{"several hashtags", "#foo #bar Some text #baz", []string{"foo", "bar", "baz"}},
		{"repeated hashtag", "#dup #dup #unique", []string{"dup", "unique"}},
		{"nested hashtags", "#project/ai #project/ml", []string{"project/ai", "project/ml"}},
		{"underscore and hyphen", "#foo_bar #foo-bar", []string{"foo_bar", "foo-bar"}},
		{"plain text", "No tags here.", []string{}},
		{"headings and inline hash", "# Title\n## Section\nwritten in C#", []string{}},
		{"multibyte hashtags", "日本語タグ #タグ #タグ/サブ", []string{"タグ", "タグ/サブ"}},
		{"frontmatter list", "---\ntags:\n  - company\n  - ai\nstatus: Active\n---\n本文 #foo", []string{"company", "ai", "foo"}},
		{"frontmatter scalar", "---\ntags: solo\nstatus: Rejected\n---\n#solo #extra", []string{"solo", "extra"}},
		{"frontmatter overlaps hashtags", "---\ntags:\n  - overlap\n  - onlyfm\n---\n#overlap #onlytag", []string{"overlap", "onlyfm", "onlytag"}},
		{"frontmatter without tags", "---\nstatus: Only status\n---\n#foo", []string{"foo"}},
		{"frontmatter empty list", "---\ntags: []\n---\n#foo", []string{"foo"}},
		{"frontmatter null tags", "---\ntags:\n---\n#foo", []string{"foo"}},
		{"broken frontmatter", "---\ntags: [unclosed\n---\n#foo", []string{"foo"}},
		{"hashtags in frontmatter are ignored", "---\ntitle: \"#notatag\"\n---\nbody", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTags(tt.content))
		})
	}
}
