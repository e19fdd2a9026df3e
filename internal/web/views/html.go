// Package views renders the lexconv web pages as templ components.
package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// page collects write errors so component bodies can stay linear.
type page struct {
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *page) render(ctx context.Context, c templ.Component) {
	if p.err == nil && c != nil {
		p.err = c.Render(ctx, p.w)
	}
}

func component(body func(ctx context.Context, p *page)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		body(ctx, p)
		return p.err
	})
}

const styles = `body{font-family:system-ui,sans-serif;max-width:60rem;margin:2rem auto;padding:0 1rem;color:#222}
nav a{margin-right:1rem}
table{border-collapse:collapse}td,th{padding:.25rem .75rem;text-align:left}
label{display:block;margin:.5rem 0 .2rem}
pre.sfm{background:#f6f6f6;padding:1rem;max-height:30rem;overflow:auto}
.alert{border:1px solid #c33;background:#fee;padding:.75rem;margin:1rem 0}
.warn{border:1px solid #c90;background:#ffd;padding:.75rem;margin:1rem 0}
.muted{color:#777}`

// Layout wraps a page body in the shared chrome.
func Layout(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, p *page) {
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		p.text(title)
		p.raw(` · lexconv</title><style>`)
		p.raw(styles)
		p.raw(`</style></head><body><nav><a href="/">Upload</a><a href="/mapping">Mapping</a>`)
		p.raw(`<a href="/preview">Preview</a><a href="/help">Help</a></nav><main>`)
		p.render(ctx, body)
		p.raw(`</main></body></html>`)
	})
}

// ErrorAlert shows a mapped user error.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(_ context.Context, p *page) {
		p.raw(`<div class="alert" role="alert"><strong>`)
		p.text(message)
		p.raw(`</strong>`)
		if action != "" {
			p.raw(` `)
			p.text(action)
		}
		if code != "" {
			p.raw(` <span class="muted">(Code: `)
			p.text(code)
			p.raw(`)</span>`)
		}
		p.raw(`</div>`)
	})
}

// Warning shows a non-fatal notice.
func Warning(message string) templ.Component {
	return component(func(_ context.Context, p *page) {
		p.raw(`<div class="warn">`)
		p.text(message)
		p.raw(`</div>`)
	})
}

// Help renders pre-rendered help HTML.
func Help(html string) templ.Component {
	return Layout("Help", templ.Raw(html))
}
