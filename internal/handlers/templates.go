package handlers

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates parses the HTML pages served under /polls and /accounts.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"datetime": formatTime,
	}).ParseFS(templateFS, "templates/*.tmpl")
}

func formatTime(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format("Jan 2, 2006, 15:04 UTC")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.UTC().Format("Jan 2, 2006, 15:04 UTC")
	default:
		return ""
	}
}
