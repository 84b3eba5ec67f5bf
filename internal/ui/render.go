package ui

import (
	"html/template"
	"io"
)

const pageTemplate = `{{define "node"}}
{{- if eq .Kind "section"}}<div class="{{.Class}}">{{range .Children}}{{template "node" .}}{{end}}</div>
{{- else if eq .Kind "header"}}<div class="{{.Class}}">{{.Text}}</div>
{{- else if eq .Kind "body"}}<div class="{{.Class}}">{{range .Children}}{{template "node" .}}{{end}}</div>
{{- else if eq .Kind "footer"}}<div class="{{.Class}}">{{range .Children}}{{template "node" .}}{{end}}</div>
{{- else if eq .Kind "message"}}<div class="{{.Class}}">{{.Text}}</div>
{{- else if eq .Kind "error"}}<div class="{{.Class}}" role="alert">{{.Text}}</div>
{{- else if eq .Kind "form"}}<form method="post" action="{{.Action}}">{{range .Children}}{{template "node" .}}{{end}}</form>
{{- else if eq .Kind "radio"}}<div class="{{.Class}}"><label><input type="radio" name="{{.Name}}" value="{{.Name}}"> {{.Text}}</label></div>
{{- else if eq .Kind "input"}}<div class="{{.Class}}"><input type="text" name="{{.Name}}" placeholder="{{.Text}}" autocomplete="one-time-code"></div>
{{- else if eq .Kind "button"}}<div class="{{.Class}}"><button type="submit"{{if .Disabled}} disabled{{end}}>{{.Text}}</button></div>
{{- else if eq .Kind "link"}}<form method="post" action="{{.Action}}"><button type="submit" class="{{.Class}}">{{.Text}}</button></form>
{{- end}}
{{- end}}<!DOCTYPE html>
<html lang="{{.Lang}}">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>{{if .Root}}{{template "node" .Root}}{{end}}</body>
</html>
`

// Renderer writes view trees as HTML pages.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{tmpl: template.Must(template.New("page").Parse(pageTemplate))}
}

type page struct {
	Lang  string
	Title string
	Root  *Node
}

// Page renders root inside an HTML document. A nil root yields an empty body.
func (r *Renderer) Page(w io.Writer, lang, title string, root *Node) error {
	return r.tmpl.Execute(w, page{Lang: lang, Title: title, Root: root})
}
