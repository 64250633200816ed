package markdown

import (
	stdhtml "html"
	"html/template"
	"io"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	md "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// BlogLinkScheme marks a link to another blog by id, e.g. [see also](blog://42).
const BlogLinkScheme = "blog://"

type Options struct {
	// RootURL turns absolute links to this site into relative ones.
	RootURL string
	// BlogLink resolves the id of a blog:// link to a page path.
	BlogLink func(id string) (string, bool)
}

const lastGoodBreakRatio = 0.8


// ToHTML renders blog content. Raw HTML in the source is dropped.
func ToHTML(input string, opts Options) template.HTML {
	if strings.TrimSpace(input) == "" {
		return template.HTML("")
	}

	doc := parse(input)
	rewriteLinks(doc, opts)

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags:          mdhtml.CommonFlags | mdhtml.SkipHTML,
		RenderNodeHook: renderNodeHook,
	})

	return template.HTML(md.Render(doc, renderer))
}

// Excerpt strips markdown syntax and cuts the text near maxChars on a word boundary.
func Excerpt(input string, maxChars int) string {
	if maxChars < 1 {
		return ""
	}

	clean := PlainText(input)
	if clean == "" {
		return ""
	}

	if utf8.RuneCountInString(clean) <= maxChars {
		return clean
	}

	return truncateRunes(clean, maxChars)
}

// PlainText reads the document the way ToHTML parses it and keeps only its prose. Link labels
// stay, a blog:// link without a label reads as "blog <id>", and code blocks, images, tables
// and raw HTML are dropped.
func PlainText(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}

	var b strings.Builder
	ast.WalkFunc(parse(markdown), func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.CodeBlock, *ast.Image, *ast.Table, *ast.HTMLBlock, *ast.HTMLSpan, *ast.HorizontalRule:
			return ast.SkipChildren
		case *ast.Link:
			if entering {
				if label, ok := blogLinkLabel(n); ok {
					b.WriteString(label)
					return ast.SkipChildren
				}
			}
		case *ast.Text:
			b.Write(n.Literal)
		case *ast.Code:
			b.Write(n.Literal)
		case *ast.Softbreak, *ast.Hardbreak:
			b.WriteByte(' ')
		case *ast.Paragraph, *ast.Heading, *ast.ListItem, *ast.BlockQuote:
			if !entering {
				b.WriteByte(' ')
			}
		}
		return ast.GoToNext
	})

	return strings.Join(strings.Fields(b.String()), " ")
}

func parse(input string) ast.Node {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	return p.Parse([]byte(input))
}

// blogLinkLabel names a blog:// link whose label is missing or just repeats the link.
func blogLinkLabel(link *ast.Link) (string, bool) {
	destination := string(link.Destination)
	id, ok := strings.CutPrefix(destination, BlogLinkScheme)
	if !ok {
		return "", false
	}

	var label strings.Builder
	ast.WalkFunc(link, func(node ast.Node, entering bool) ast.WalkStatus {
		if leaf := node.AsLeaf(); leaf != nil && entering {
			label.Write(leaf.Literal)
		}
		return ast.GoToNext
	})

	text := strings.TrimSpace(label.String())
	if text != "" && text != destination {
		return "", false
	}
	return "blog " + strings.Trim(id, "/"), true
}

func truncateRunes(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	truncateAt := maxChars
	minBreak := int(float64(maxChars) * lastGoodBreakRatio)
	for idx := maxChars - 1; idx >= minBreak; idx-- {
		if unicode.IsSpace(runes[idx]) {
			truncateAt = idx
			break
		}
	}

	truncated := strings.TrimSpace(string(runes[:truncateAt]))
	if truncated == "" {
		truncated = strings.TrimSpace(string(runes[:maxChars]))
	}

	return truncated + "..."
}

func rewriteLinks(doc ast.Node, opts Options) {
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}

		link, ok := node.(*ast.Link)
		if !ok {
			return ast.GoToNext
		}

		href, local := resolveLink(string(link.Destination), opts)
		link.Destination = []byte(href)
		link.AdditionalAttributes = linkAttributes(link.AdditionalAttributes, local)

		return ast.GoToNext
	})
}

// resolveLink reports whether href stays on this site after rewriting.
func resolveLink(href string, opts Options) (string, bool) {
	if id, ok := strings.CutPrefix(href, BlogLinkScheme); ok {
		if opts.BlogLink != nil {
			if target, ok := opts.BlogLink(strings.Trim(id, "/")); ok {
				return target, true
			}
		}
		return "#", true
	}

	if strings.HasPrefix(href, "/") || strings.HasPrefix(href, "#") {
		return href, true
	}

	return relativeToRoot(href, opts.RootURL)
}

func relativeToRoot(href string, rootURL string) (string, bool) {
	rootURL = strings.TrimRight(rootURL, "/")
	if rootURL == "" || !strings.HasPrefix(href, rootURL) {
		return href, false
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return href, true
	}

	normalized := parsed.Path
	if normalized == "" {
		normalized = "/"
	}
	if parsed.RawQuery != "" {
		normalized += "?" + parsed.RawQuery
	}
	if parsed.Fragment != "" {
		normalized += "#" + parsed.Fragment
	}

	return normalized, true
}

// linkAttributes opens off-site links in a new tab.
func linkAttributes(existing []string, local bool) []string {
	attrs := make([]string, 0, len(existing)+2)
	for _, attr := range existing {
		normalized := strings.ToLower(strings.TrimSpace(attr))
		if strings.HasPrefix(normalized, "target=") || strings.HasPrefix(normalized, "rel=") {
			continue
		}
		attrs = append(attrs, attr)
	}

	if !local {
		attrs = append(attrs, `target="_blank"`, `rel="noopener noreferrer"`)
	}

	return attrs
}

func renderNodeHook(writer io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	if !entering {
		return ast.GoToNext, false
	}

	switch typedNode := node.(type) {
	case *ast.CodeBlock:
		renderCodeBlock(writer, typedNode)
		return ast.SkipChildren, true
	case *ast.Code:
		renderInlineCode(writer, typedNode)
		return ast.SkipChildren, true
	default:
		return ast.GoToNext, false
	}
}

func renderCodeBlock(writer io.Writer, block *ast.CodeBlock) {
	code := string(block.Literal)
	lexer := pickLexer(codeLanguage(block.Info), code)
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		renderPlainCodeBlock(writer, code)
		return
	}

	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.Format(writer, styles.Fallback, iterator); err != nil {
		renderPlainCodeBlock(writer, code)
	}
}

func renderInlineCode(writer io.Writer, code *ast.Code) {
	_, _ = io.WriteString(writer, `<code class="inline-code">`)
	_, _ = io.WriteString(writer, stdhtml.EscapeString(string(code.Literal)))
	_, _ = io.WriteString(writer, `</code>`)
}

func renderPlainCodeBlock(writer io.Writer, code string) {
	_, _ = io.WriteString(writer, `<pre class="chroma"><code>`)
	_, _ = io.WriteString(writer, stdhtml.EscapeString(code))
	_, _ = io.WriteString(writer, `</code></pre>`)
}

func pickLexer(language string, code string) chroma.Lexer {
	if language != "" {
		if lexer := lexers.Get(language); lexer != nil {
			return lexer
		}
	}

	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer
	}

	return lexers.Fallback
}

func codeLanguage(info []byte) string {
	fields := strings.Fields(string(info))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
