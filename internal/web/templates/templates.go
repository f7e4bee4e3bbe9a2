// Package templates renders the upload page. Components are plain
// templ.Component values so handlers can compose and stream them.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Option is one entry of the target picker.
type Option struct {
	Value      string
	Label      string
	Configured bool
}

// Flash is the result banner shown above the form.
type Flash struct {
	Kind    string // "success", "warning" or "error"
	Message string
	Action  string
	Code    string
}

var e = templ.EscapeString

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title>%s</head><body><main class="container">`, e(title), style); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// Alert renders a flash banner. A zero Flash renders nothing.
func Alert(f Flash) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if f.Message == "" {
			return nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, `<div class="alert alert-%s" role="alert"><p>%s</p>`, e(f.Kind), e(f.Message))
		if f.Action != "" {
			fmt.Fprintf(&b, `<p class="action">%s</p>`, e(f.Action))
		}
		if f.Code != "" {
			fmt.Fprintf(&b, `<p class="code">Code: %s</p>`, e(f.Code))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorAlert renders an error banner on its own, for partial responses.
func ErrorAlert(message, action, code string) templ.Component {
	return Alert(Flash{Kind: "error", Message: message, Action: action, Code: code})
}

// UploadForm renders the file picker, target picker and table name field.
func UploadForm(options []Option, selected string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<form method="post" action="/upload" enctype="multipart/form-data">`)
		b.WriteString(`<label for="file">File (.csv, .txt, .json, .xml)</label>`)
		b.WriteString(`<input type="file" id="file" name="file" accept=".csv,.txt,.json,.xml" required>`)
		b.WriteString(`<label for="db_type">Database</label><select id="db_type" name="db_type">`)
		for _, o := range options {
			fmt.Fprintf(&b, `<option value="%s"`, e(o.Value))
			if o.Value == selected {
				b.WriteString(` selected`)
			}
			if !o.Configured {
				b.WriteString(` disabled`)
			}
			b.WriteString(`>`)
			b.WriteString(e(o.Label))
			if !o.Configured {
				b.WriteString(` (not configured)`)
			}
			b.WriteString(`</option>`)
		}
		b.WriteString(`</select>`)
		b.WriteString(`<label for="table_name">Table / collection name</label>`)
		b.WriteString(`<input type="text" id="table_name" name="table_name" placeholder="people">`)
		b.WriteString(`<button type="submit">Upload</button></form>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// UploadPage is the full index page.
func UploadPage(options []Option, selected string, flash Flash) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h1>Upload data</h1>`); err != nil {
			return err
		}
		if err := Alert(flash).Render(ctx, w); err != nil {
			return err
		}
		return UploadForm(options, selected).Render(ctx, w)
	})
	return Layout("dbroute", body)
}

const style = `<style>
body{font-family:system-ui,sans-serif;background:#f6f7f9;margin:0}
.container{max-width:36rem;margin:3rem auto;background:#fff;padding:2rem;border-radius:.5rem;box-shadow:0 1px 3px rgba(0,0,0,.1)}
label{display:block;margin-top:1rem;font-weight:600}
input,select{width:100%;margin-top:.25rem;padding:.4rem}
button{margin-top:1.5rem;padding:.5rem 1.25rem}
.alert{padding:.75rem 1rem;border-radius:.25rem;margin-bottom:1rem}
.alert-success{background:#e6f4ea}.alert-warning{background:#fff4e5}.alert-error{background:#fdecea}
.code{font-size:.8rem;color:#555}
</style>`
