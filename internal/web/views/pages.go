package views

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/lexconv/internal/core"
	"github.com/JonMunkholm/lexconv/internal/lexicon"
	"github.com/JonMunkholm/lexconv/internal/presets"
)

// UploadData feeds the upload page.
type UploadData struct {
	Source  string
	Rows    int
	Columns []string
	Error   *core.UserMessage
	MaxSize int64
}

// Upload is the landing page.
func Upload(d UploadData) templ.Component {
	return Layout("Upload", component(func(ctx context.Context, p *page) {
		p.raw(`<h1>Spreadsheet / SFM converter</h1>`)
		if d.Error != nil {
			p.render(ctx, ErrorAlert(d.Error.Message, d.Error.Action, d.Error.Code))
		}
		p.raw(`<form method="post" action="/upload" enctype="multipart/form-data">`)
		p.raw(`<label for="file">Word list (.xlsx, .xls, .csv or .sfm)</label>`)
		p.raw(`<input id="file" type="file" name="file" accept=".xlsx,.xls,.xlsm,.csv,.sfm,.txt" required> `)
		p.raw(`<button type="submit">Upload</button></form>`)
		if d.MaxSize > 0 {
			p.raw(`<p class="muted">Maximum size `)
			p.text(strconv.FormatInt(d.MaxSize/(1<<20), 10))
			p.raw(` MB.</p>`)
		}
		if d.Source != "" {
			p.raw(`<h2>Loaded</h2><p><strong>`)
			p.text(d.Source)
			p.raw(`</strong>: `)
			p.text(strconv.Itoa(d.Rows))
			p.raw(` rows, `)
			p.text(strconv.Itoa(len(d.Columns)))
			p.raw(` columns. <a href="/mapping">Map columns</a></p>`)
			p.raw(`<form method="post" action="/reset"><button type="submit">Reset</button></form>`)
		}
	}))
}

// MappingData feeds the mapping form.
type MappingData struct {
	Session  lexicon.Session
	SFM      bool
	Warnings []string
	Formats  []core.FormatInfo
	Matches  []presets.Match
	Presets  []presets.Preset
	Error    *core.UserMessage
}

// Mapping is the column mapping form.
func Mapping(d MappingData) templ.Component {
	return Layout("Mapping", component(func(ctx context.Context, p *page) {
		sess := d.Session
		p.raw(`<h1>Map columns</h1><p class="muted">`)
		p.text(sess.Source)
		p.raw(`</p>`)
		if d.Error != nil {
			p.render(ctx, ErrorAlert(d.Error.Message, d.Error.Action, d.Error.Code))
		}
		for _, w := range d.Warnings {
			p.render(ctx, Warning(w))
		}
		if !sess.Ready() {
			p.raw(`<p>The file has no data rows, so there is nothing to map.</p>`)
			return
		}

		p.raw(`<form method="post" action="/mapping">`)
		p.raw(`<label for="languages">Number of languages</label>`)
		p.raw(`<input id="languages" type="number" name="languages" min="1" max="20" value="`)
		p.text(strconv.Itoa(sess.Languages()))
		p.raw(`">`)

		columnSelect(p, "headword", lexicon.FieldHeadword.Label(), sess.Mapping.Headword, sess.Dataset.Columns)
		for i := 1; i < sess.Languages(); i++ {
			n := strconv.Itoa(i + 1)
			columnSelect(p, "gloss"+n, "Language "+n+" (gloss)", sess.Mapping.Gloss(i), sess.Dataset.Columns)
		}
		for _, f := range lexicon.SingleFields {
			columnSelect(p, string(f), f.Label(), sess.Mapping.Column(f), sess.Dataset.Columns)
		}

		if d.SFM {
			p.raw(`<h2>Spreadsheet headers</h2>`)
			textInput(p, "label_headword", "Header for lx", sess.Labels.Headword)
			for i, l := range sess.Labels.Glosses {
				n := strconv.Itoa(i + 1)
				textInput(p, "label_gloss"+n, "Header for ge"+n, l)
			}
		}
		p.raw(`<p><button type="submit">Save mapping</button></p></form>`)

		p.raw(`<h2>Download</h2><form method="get" action="/download">`)
		textInput(p, "name", "File name (optional)", "")
		for _, f := range d.Formats {
			p.raw(`<button type="submit" formaction="/download/`)
			p.text(f.Key)
			p.raw(`">`)
			p.text(f.Label)
			p.raw(`</button> `)
		}
		p.raw(`</form>`)

		presetSection(p, d)
	}))
}

func presetSection(p *page, d MappingData) {
	p.raw(`<h2>Presets</h2>`)
	if len(d.Matches) > 0 {
		p.raw(`<p>Matching presets for these columns:</p><ul>`)
		for _, m := range d.Matches {
			p.raw(`<li><form method="post" action="/presets/`)
			p.text(m.Preset.ID)
			p.raw(`/apply" style="display:inline"><button type="submit">Apply</button></form> `)
			p.text(m.Preset.Name)
			p.raw(` <span class="muted">`)
			p.text(strconv.Itoa(int(m.Score*100 + 0.5)))
			p.raw(`% match</span></li>`)
		}
		p.raw(`</ul>`)
	} else if len(d.Presets) > 0 {
		p.raw(`<p class="muted">`)
		p.text(strconv.Itoa(len(d.Presets)))
		p.raw(` saved presets, none matching these columns.</p>`)
	}
	p.raw(`<form method="post" action="/presets">`)
	textInput(p, "preset_name", "Save current mapping as", "")
	p.raw(`<button type="submit">Save preset</button></form>`)
}

func columnSelect(p *page, name, label, selected string, columns []string) {
	p.raw(`<label for="`)
	p.text(name)
	p.raw(`">`)
	p.text(label)
	p.raw(`</label><select id="`)
	p.text(name)
	p.raw(`" name="`)
	p.text(name)
	p.raw(`"><option value="">-- none --</option>`)
	for _, c := range columns {
		p.raw(`<option value="`)
		p.text(c)
		p.raw(`"`)
		if c == selected {
			p.raw(` selected`)
		}
		p.raw(`>`)
		p.text(c)
		p.raw(`</option>`)
	}
	p.raw(`</select>`)
}

func textInput(p *page, name, label, value string) {
	p.raw(`<label for="`)
	p.text(name)
	p.raw(`">`)
	p.text(label)
	p.raw(`</label><input type="text" id="`)
	p.text(name)
	p.raw(`" name="`)
	p.text(name)
	p.raw(`" value="`)
	p.text(value)
	p.raw(`">`)
}

// Preview shows the SFM rendering of the current session.
func Preview(source, sfmText string) templ.Component {
	return Layout("Preview", component(func(_ context.Context, p *page) {
		p.raw(`<h1>SFM preview</h1><p class="muted">`)
		p.text(source)
		p.raw(`</p>`)
		if sfmText == "" {
			p.raw(`<p>Nothing to preview yet. <a href="/">Upload a file</a>.</p>`)
			return
		}
		p.raw(`<pre class="sfm">`)
		p.text(sfmText)
		p.raw(`</pre><p><a href="/download/sfm">Download .sfm</a></p>`)
	}))
}
