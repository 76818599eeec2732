package httpapi

import (
	"bytes"
	"html/template"

	"github.com/i474232898/watch-companion/internal/settings"
)

var formPage = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
<form method="post" action="/config">
{{- if .ReturnTo}}
<input type="hidden" name="return_to" value="{{.ReturnTo}}">
{{- end}}
{{- range .Items}}
{{template "item" .}}
{{- end}}
</form>
</body>
</html>
{{define "item"}}
{{- if eq .Type "heading"}}<h2>{{.DefaultValue}}</h2>
{{- else if eq .Type "text"}}<p>{{.DefaultValue}}</p>
{{- else if eq .Type "section"}}<fieldset>
{{- range .Items}}
{{template "item" .}}
{{- end}}
</fieldset>
{{- else if eq .Type "input"}}<label>{{.Label}} <input type="text" name="{{.MessageKey}}" value="{{.DefaultValue}}"></label>
{{- else if eq .Type "submit"}}<button type="submit">{{.DefaultValue}}</button>
{{- end}}
{{- end}}`))

var savedPage = template.Must(template.New("saved").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Settings saved</title></head>
<body><p>Settings saved.</p></body>
</html>`))

type formData struct {
	Title    string
	ReturnTo string
	Items    []settings.Item
}

func renderForm(items []settings.Item, returnTo string) ([]byte, error) {
	title := "Settings"
	if len(items) > 0 && items[0].Type == settings.ItemHeading {
		title = items[0].DefaultValue
	}
	var buf bytes.Buffer
	if err := formPage.Execute(&buf, formData{Title: title, ReturnTo: returnTo, Items: items}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderSaved() ([]byte, error) {
	var buf bytes.Buffer
	if err := savedPage.Execute(&buf, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
