package render

import (
	"bytes"
	"errors"
	"html"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	chroma_html "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultSyntaxTheme is used when a requested theme does not exist.
const DefaultSyntaxTheme = "gruvbox"

var regexCallout = regexp.MustCompile(`//\s*<<(\d+)>>`)

func style(name string) *chroma.Style {
	if s, ok := styles.Registry[name]; ok {
		return s
	}
	return styles.Get(DefaultSyntaxTheme)
}

func formatter() *chroma_html.Formatter {
	return chroma_html.New(
		chroma_html.WithClasses(true),
		chroma_html.TabWidth(4),
		chroma_html.WithLineNumbers(true),
		chroma_html.WrapLongLines(true),
	)
}

func HighlightCode(code, language, highlightTheme string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter().Format(&buf, style(highlightTheme), iterator); err != nil {
		return code
	}

	res := html.UnescapeString(buf.String())
	return regexCallout.ReplaceAllString(res, "<span class=\"callout\">$1</span>")
}

// HighlightSource writes md as highlighted markdown source using the named
// chroma formatter, e.g. "terminal256" for the CLI.
func HighlightSource(w io.Writer, md []byte, theme, format string) error {
	lexer := lexers.Get("markdown")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	f := formatters.Get(format)
	if f == nil {
		f = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, string(md))
	if err != nil {
		_, werr := w.Write(md)
		return errors.Join(err, werr)
	}
	return f.Format(w, style(theme), iterator)
}

// SyntaxCSS returns the stylesheet for the classes emitted by HighlightCode.
func SyntaxCSS(theme string) string {
	var buf bytes.Buffer
	s := style(theme)

	bg := s.Get(chroma.Background)
	if !bg.Colour.IsSet() {
		// Pick a readable text colour when the theme only sets a background.
		luminance := (0.299*float64(bg.Background.Red()) +
			0.587*float64(bg.Background.Green()) +
			0.114*float64(bg.Background.Blue())) / 255
		if luminance > 0.5 {
			buf.WriteString(".chroma { color: #181818; }\n")
		}
	}

	if err := formatter().WriteCSS(&buf, s); err != nil {
		renderLogger.Error().Err(err).Str("theme", theme).Msg("Error generating syntax CSS")
	}
	return buf.String()
}

func SyntaxThemes() []string {
	names := styles.Names()
	slices.Sort(names)
	return names
}
