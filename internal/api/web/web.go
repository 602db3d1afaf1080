package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates holds the parsed HTML pages served by the form handler
var Templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// IndexTemplate is the name of the form page
const IndexTemplate = "index.html"
