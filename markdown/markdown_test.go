package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	r := New()

	tests := []struct {
		name     string
		source   string
		contains string
	}{
		{"heading", "# Hi", "<h1>Hi</h1>"},
		{"bold", "Words can be **bolded**", "<strong>bolded</strong>"},
		{"link", "[this](https://example.com)", `<a href="https://example.com">this</a>`},
		{"raw html", "HTML <s>tags</s> are fine too.", "<s>tags</s>"},
		{"block quote", "> quoted", "<blockquote>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, r.Render(tt.source), tt.contains)
		})
	}
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "", New().Render(""))
}
