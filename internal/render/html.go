package render

import (
	"html/template"
	"io"
)

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:sans-serif;background:#f3f4f6;margin:0;padding:24px}
main{max-width:56rem;margin:0 auto;background:#fff;border-radius:12px;padding:24px}
textarea{width:100%;height:10rem;box-sizing:border-box}
.error{background:#fee2e2;border:1px solid #f87171;color:#b91c1c;padding:12px;border-radius:8px}
.prompt{background:#fef3c7;border:1px solid #f59e0b;padding:12px;border-radius:8px}
.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(14rem,1fr));gap:16px}
.card{background:#eff6ff;border:1px solid #93c5fd;padding:16px;border-radius:12px}
</style>
</head>
<body>
<main>
<h1>{{.Title}}</h1>
<form method="post" action="/" enctype="multipart/form-data">
<textarea name="text" placeholder="Paste or upload content...">{{.InputText}}</textarea>
<p>
<input type="file" name="file" accept="{{.Accept}}">
{{if .FileName}}<span>Selected: {{.FileName}}</span>{{end}}
<button type="submit"{{if .GenerateDisabled}} disabled{{end}}>{{.ButtonLabel}}</button>
</p>
</form>
{{if .Prompt}}<div class="prompt" role="alertdialog">{{.Prompt}}</div>{{end}}
{{if .ErrorBanner}}<div class="error" role="alert">{{.ErrorBanner}}</div>{{end}}
{{if .ShowExport}}<p>{{range .Links}}<a href="{{.Href}}" download="{{.Filename}}">{{.Label}}</a> {{end}}</p>
<div class="grid">{{range .Cards}}
<div class="card"><h2>Q: {{.Question}}</h2><p>A: {{.Answer}}</p></div>{{end}}
</div>{{end}}
</main>
</body>
</html>
`))

type htmlLink struct {
	Label    string
	Filename string
	Href     template.URL
}

type htmlPage struct {
	View
	Accept string
	Links  []htmlLink
}

// HTML draws v as a complete page. accept is the file input's accept list.
func HTML(w io.Writer, v View, accept string) error {
	p := htmlPage{View: v, Accept: accept}
	for _, e := range v.Exports {
		// Data URIs are built by export.DataURI, never from user input.
		p.Links = append(p.Links, htmlLink{Label: e.Label, Filename: e.Filename, Href: template.URL(e.Href)})
	}
	return page.Execute(w, p)
}
