package markdown

import (
	"context"
	"strings"
	"testing"
)

func TestRenderString(t *testing.T) {
	tests := []struct {
		name string
		md   string
		want string
	}{
		{"h1", "# Title", "<h1>Title</h1>"},
		{"h2", "## Section", "<h2>Section</h2>"},
		{"h3", "### Sub", "<h3>Sub</h3>"},
		{"paragraph", "plain text", "<p>plain text</p>"},
		{"joined lines", "two\nlines", "<p>two lines</p>"},
		{"two paragraphs", "first\n\nsecond", "<p>first</p><p>second</p>"},
		{"bold and italic", "**bold** and *italic*", "<p><strong>bold</strong> and <em>italic</em></p>"},
		{"inline code", "run `go vet` first", "<p>run <code>go vet</code> first</p>"},
		{"unordered list", "- a\n- b", "<ul><li>a</li><li>b</li></ul>"},
		{"star list", "* a\n* b", "<ul><li>a</li><li>b</li></ul>"},
		{"ordered list", "1. first\n2. second", "<ol><li>first</li><li>second</li></ol>"},
		{"blockquote", "> wise words", "<blockquote>wise words</blockquote>"},
		{"rule", "---", "<hr/>"},
		{"link", "[text](https://example.com)", `<p><a href="https://example.com">text</a></p>`},
		{"relative link", "[home](/about)", `<p><a href="/about">home</a></p>`},
		{"image", "![alt](/img.png)", `<p><img alt="alt" src="/img.png" loading="lazy"/></p>`},
		{"escapes html", "<script>alert(1)</script>", "<p>&lt;script&gt;alert(1)&lt;/script&gt;</p>"},
		{"list then paragraph", "- item\n\nafter", "<ul><li>item</li></ul><p>after</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderString(tt.md); got != tt.want {
				t.Errorf("RenderString(%q) = %q, want %q", tt.md, got, tt.want)
			}
		})
	}
}

func TestFencedCodeBlock(t *testing.T) {
	md := "```\nfmt.Println(\"<hi>\")\n```"
	got := RenderString(md)
	want := "<pre><code>fmt.Println(&#34;&lt;hi&gt;&#34;)\n</code></pre>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUnsafeLinkSchemeDropped(t *testing.T) {
	got := RenderString("[click](javascript:alert(1))")
	if strings.Contains(got, "javascript") {
		t.Errorf("javascript: URL survived: %q", got)
	}
	if !strings.Contains(got, "click") {
		t.Errorf("link text lost: %q", got)
	}
}

func TestBoldInsideLinkTextDoesNotBreakHref(t *testing.T) {
	got := RenderString("[go docs](https://go.dev/doc/) and **bold**")
	if !strings.Contains(got, `href="https://go.dev/doc/"`) {
		t.Errorf("href mangled: %q", got)
	}
	if !strings.Contains(got, "<strong>bold</strong>") {
		t.Errorf("bold not applied: %q", got)
	}
}

func TestComponentWritesHTML(t *testing.T) {
	var sb strings.Builder
	if err := Component("# Hi").Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if sb.String() != "<h1>Hi</h1>" {
		t.Errorf("got %q", sb.String())
	}
}
