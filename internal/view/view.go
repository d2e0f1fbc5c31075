// Package view holds the HTML templates of the console surface.
package view

import (
	"embed"
	"html/template"

	"github.com/noah-isme/student-console/internal/dto"
)

//go:embed templates/*.html
var files embed.FS

// Page names understood by Templates.
const (
	IndexPage   = "index.html"
	ConfirmPage = "confirm.html"
)

// IndexData feeds IndexPage.
type IndexData struct {
	State dto.ConsoleState
}

// ConfirmData feeds ConfirmPage.
type ConfirmData struct {
	ID     int
	Prompt string
}

// Templates parses the embedded pages.
func Templates() (*template.Template, error) {
	return template.New("console").Funcs(template.FuncMap{
		"hasAction": hasAction,
	}).ParseFS(files, "templates/*.html")
}

func hasAction(row dto.StudentRow, action string) bool {
	for _, a := range row.Actions {
		if string(a) == action {
			return true
		}
	}
	return false
}
