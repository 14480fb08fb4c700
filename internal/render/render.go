// Package render turns draft markdown into preview HTML.
package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mmarkdown/mmark/v2/lang"
	"github.com/mmarkdown/mmark/v2/mast"
	"github.com/mmarkdown/mmark/v2/mparser"
	"github.com/mmarkdown/mmark/v2/render/mhtml"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/draftkeep/internal/cache"
	"github.com/debemdeboas/draftkeep/internal/util"
)

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

// RenderMarkdown renders md with mmark when it starts with a front matter
// block and with the classic renderer otherwise. The title data is nil for
// the classic renderer.
func RenderMarkdown(md []byte, highlightTheme string) ([]byte, *mast.TitleData) {
	if _, err := util.ParseFrontMatter(md); err == nil {
		return RenderMarkdownMmark(md, highlightTheme)
	}
	return RenderMarkdownClassic(md, highlightTheme), nil
}

func codeBlockHook(highlightTheme string) func(io.Writer, ast.Node, bool) (ast.WalkStatus, bool) {
	return func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
		if code, ok := node.(*ast.CodeBlock); ok && entering {
			var lang string
			if info := code.Info; info != nil {
				lang = string(info)
			}
			highlighted := HighlightCode(string(code.Literal), lang, highlightTheme)
			fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", highlighted)
			return ast.GoToNext, true
		}
		return ast.GoToNext, false
	}
}

func RenderMarkdownClassic(md []byte, highlightTheme string) []byte {
	codeBlocks := codeBlockHook(highlightTheme)
	opts := md_html.RendererOptions{
		Flags:    md_html.CommonFlags | md_html.HrefTargetBlank | md_html.FootnoteReturnLinks,
		Comments: [][]byte{[]byte("//"), []byte("#")},
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if status, done := codeBlocks(w, node, entering); done {
				return status, done
			}

			if callout, ok := node.(*ast.Callout); ok && entering {
				fmt.Fprintf(w, "<span class=\"callout\">%s</span>", callout.ID)
				return ast.GoToNext, true
			}

			return ast.GoToNext, false
		},
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.HeadingIDs | parser.BackslashLineBreak | parser.SuperSubscript | parser.DefinitionLists | parser.MathJax |
			parser.AutoHeadingIDs | parser.Footnotes | parser.OrderedListStart | parser.Attributes |
			parser.NonBlockingSpace,
	).Parse(md)

	return markdown.Render(doc, md_html.NewRenderer(opts))
}

func RenderMarkdownMmark(md []byte, highlightTheme string) ([]byte, *mast.TitleData) {
	md = markdown.NormalizeNewlines(md)

	p := parser.NewWithExtensions(mparser.Extensions | parser.NoIntraEmphasis)

	var info *mast.TitleData
	p.Opts = parser.Options{
		ParserHook: func(data []byte) (ast.Node, []byte, int) {
			node, data, consumed := mparser.Hook(data)
			if t, ok := node.(*mast.Title); ok {
				info = t.TitleData
			}
			return node, data, consumed
		},
		Flags: parser.FlagsNone,
	}

	doc := markdown.Parse(md, p)
	mparser.AddIndex(doc)

	// A draft without a title block still renders.
	if info == nil {
		info = &mast.TitleData{
			Title:    "Untitled",
			Language: "en",
		}
	}

	mhtmlOpts := mhtml.RendererOptions{
		Language: lang.New(info.Language),
	}

	codeBlocks := codeBlockHook(highlightTheme)
	opts := md_html.RendererOptions{
		Comments: [][]byte{[]byte("//"), []byte("#")},
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if status, done := codeBlocks(w, node, entering); done {
				return status, done
			}
			return mhtmlOpts.RenderHook(w, node, entering)
		},
		Flags: md_html.CommonFlags | md_html.FootnoteNoHRTag | md_html.FootnoteReturnLinks,
	}

	return markdown.Render(doc, md_html.NewRenderer(opts)), info
}

// MaxCachedPreviews bounds the preview cache. It is emptied when full.
const MaxCachedPreviews = 64

type rendered struct {
	HTML  []byte
	Title *mast.TitleData
}

// Previewer renders drafts, caching by content hash and syntax theme.
type Previewer struct {
	syntaxTheme string
	cache       *cache.Cache[string, *rendered]

	// mu protects the check-render-set sequence.
	mu sync.Mutex
}

func NewPreviewer(syntaxTheme string) *Previewer {
	return &Previewer{
		syntaxTheme: syntaxTheme,
		cache:       cache.NewCache[string, *rendered](),
	}
}

func (p *Previewer) SyntaxTheme() string {
	return p.syntaxTheme
}

// Preview renders md. The returned title is "" when md carries no title block.
func (p *Previewer) Preview(md []byte) (html []byte, title string) {
	key := util.ContentHash(md) + ":" + p.syntaxTheme

	if cached, found := p.cache.Get(key); found {
		renderLogger.Debug().Str("key", key).Msg("Cache hit for rendered preview")
		return cached.HTML, titleOf(cached.Title)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, found := p.cache.Get(key); found {
		return cached.HTML, titleOf(cached.Title)
	}

	renderLogger.Debug().Str("key", key).Msg("Cache miss for rendered preview")
	html, info := RenderMarkdown(md, p.syntaxTheme)
	if p.cache.Len() >= MaxCachedPreviews {
		p.cache.Clear()
	}
	p.cache.Set(key, &rendered{HTML: html, Title: info})

	return html, titleOf(info)
}

func titleOf(info *mast.TitleData) string {
	if info == nil {
		return ""
	}
	return info.Title
}
