package markdown

import (
	"bytes"
	"html/template"
	"strings"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// Theme names the chroma styles used for light and dark color schemes.
type Theme struct {
	Light string
	Dark  string
}

var DefaultTheme = Theme{Light: "github", Dark: "monokai"}

var themeCSS sync.Map

// HighlightCSS returns the stylesheet for highlighted code blocks, built once per theme.
func HighlightCSS(theme Theme) template.CSS {
	if cached, ok := themeCSS.Load(theme); ok {
		return cached.(template.CSS)
	}

	css := template.CSS(buildThemeCSS(theme))
	actual, _ := themeCSS.LoadOrStore(theme, css)
	return actual.(template.CSS)
}

func buildThemeCSS(theme Theme) string {
	var out strings.Builder
	writeScheme(&out, "light", theme.Light)
	writeScheme(&out, "dark", theme.Dark)
	return out.String()
}

func writeScheme(out *strings.Builder, scheme string, styleName string) {
	if styleName == "" {
		return
	}

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	var buffer bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buffer, style); err != nil || buffer.Len() == 0 {
		return
	}

	out.WriteString("@media (prefers-color-scheme: " + scheme + ") {\n")
	out.Write(buffer.Bytes())
	out.WriteString("}\n")
}
