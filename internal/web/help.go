package web

import (
	_ "embed"
	"fmt"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed help.md
var helpMarkdown []byte

func renderHelp() (string, error) {
	if len(helpMarkdown) == 0 {
		return "", fmt.Errorf("help page is empty")
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(markdown.ToHTML(helpMarkdown, p, r)), nil
}
