package markdown

import (
	"strings"
	"testing"
)

func TestToHTML_ResolvesBlogLinks(t *testing.T) {
	html := string(ToHTML("[next](blog://42)", Options{
		BlogLink: func(id string) (string, bool) {
			return "/blog/" + id + "/detail", id != ""
		},
	}))

	if !strings.Contains(html, `href="/blog/42/detail"`) {
		t.Fatalf("expected resolved blog href, got %s", html)
	}
	if strings.Contains(html, `target="_blank"`) {
		t.Fatalf("did not expect blog links to open a new tab, got %s", html)
	}
}

func TestToHTML_UnresolvedBlogLinkIsInert(t *testing.T) {
	html := string(ToHTML("[gone](blog://missing)", Options{}))

	if !strings.Contains(html, `href="#"`) {
		t.Fatalf("expected inert href, got %s", html)
	}
}

func TestToHTML_ExternalLinksOpenInNewTab(t *testing.T) {
	html := string(ToHTML("[docs](https://example.com/read)", Options{
		RootURL: "https://blog.example.org",
	}))

	if !strings.Contains(html, `href="https://example.com/read"`) {
		t.Fatalf("expected external href untouched, got %s", html)
	}
	if !strings.Contains(html, `target="_blank"`) {
		t.Fatalf("expected target blank, got %s", html)
	}
	if !strings.Contains(html, `rel="noopener noreferrer"`) {
		t.Fatalf("expected external rel attrs, got %s", html)
	}
}

func TestToHTML_NormalizesSameSiteAbsoluteLinks(t *testing.T) {
	html := string(ToHTML("[same](https://blog.example.org/blog/7/detail?x=1#k)", Options{
		RootURL: "https://blog.example.org/",
	}))

	if !strings.Contains(html, `href="/blog/7/detail?x=1#k"`) {
		t.Fatalf("expected normalized same-site href, got %s", html)
	}
	if strings.Contains(html, `target="_blank"`) {
		t.Fatalf("did not expect same-site links to open a new tab, got %s", html)
	}
}

func TestToHTML_HighlightsCodeBlocks(t *testing.T) {
	source := "```go\nfmt.Println(\"hello\")\n```"
	html := string(ToHTML(source, Options{}))

	if !strings.Contains(html, `class="chroma"`) {
		t.Fatalf("expected chroma class for fenced code block, got %s", html)
	}
	if !strings.Contains(html, "Println") {
		t.Fatalf("expected code content in rendered block, got %s", html)
	}
}

func TestToHTML_RendersInlineCodeClass(t *testing.T) {
	html := string(ToHTML("Use `go test ./...` now.", Options{}))

	if !strings.Contains(html, `<code class="inline-code">go test ./...</code>`) {
		t.Fatalf("expected inline code class, got %s", html)
	}
}

func TestToHTML_DropsRawHTML(t *testing.T) {
	html := string(ToHTML("hello <script>alert(1)</script>", Options{}))

	if strings.Contains(html, "<script>") {
		t.Fatalf("expected raw html to be skipped, got %s", html)
	}
}

func TestExcerpt_KeepsLinkText(t *testing.T) {
	got := Excerpt("Read the **release notes** at [the changelog](https://example.com/changes).", 300)

	if got != "Read the release notes at the changelog." {
		t.Fatalf("unexpected excerpt %q", got)
	}
}

func TestPlainText_NamesBlogLinks(t *testing.T) {
	got := PlainText("See [the intro](blog://7) and [blog://42](blog://42) for more.")

	if got != "See the intro and blog 42 for more." {
		t.Fatalf("unexpected plain text %q", got)
	}
}

func TestPlainText_DropsCodeImagesAndHTML(t *testing.T) {
	source := "# Setup\nRun `make` first.\n\n![diagram](/img.png)\n\n```sh\nrm -rf /\n```\n\n> quoted <b>tip</b>\n\n- one\n- two"

	got := PlainText(source)
	if got != "Setup Run make first. quoted tip one two" {
		t.Fatalf("unexpected plain text %q", got)
	}
}

func TestExcerpt_TruncatesOnWordBoundary(t *testing.T) {
	got := Excerpt("alpha beta gamma delta", 12)
	if got != "alpha beta..." {
		t.Fatalf("expected graceful word truncation, got %q", got)
	}
}

func TestHighlightCSS_CoversBothSchemes(t *testing.T) {
	css := string(HighlightCSS(DefaultTheme))

	if !strings.Contains(css, "prefers-color-scheme: light") || !strings.Contains(css, "prefers-color-scheme: dark") {
		t.Fatalf("expected light and dark blocks, got %s", css)
	}
	if HighlightCSS(DefaultTheme) != HighlightCSS(DefaultTheme) {
		t.Fatal("expected cached stylesheet")
	}
}
