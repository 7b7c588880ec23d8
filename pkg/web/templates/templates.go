// Package templates embeds the server-rendered pages.
package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var files embed.FS

// Parse loads every page. It panics on a malformed template, which can only
// happen at build time.
func Parse() *template.Template {
	return template.Must(template.ParseFS(files, "*.html"))
}
