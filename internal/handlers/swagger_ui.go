package handlers

import (
	"html/template"
	"net/http"
)

const swaggerUIVersion = "5.10.0"

type docsPage struct {
	Title   string
	SpecURL string
	Assets  string
}

var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="{{.Assets}}/swagger-ui.css">
    <style>body { margin: 0; }</style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="{{.Assets}}/swagger-ui-bundle.js"></script>
    <script>
        window.onload = () => {
            window.ui = SwaggerUIBundle({
                url: "{{.SpecURL}}",
                dom_id: "#swagger-ui",
                deepLinking: true,
                docExpansion: "list",
                tagsSorter: "alpha",
                presets: [SwaggerUIBundle.presets.apis],
            });
        };
    </script>
</body>
</html>`))

// SwaggerUI serves the interactive API reference backed by /api/docs/openapi.json
func SwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	docsTemplate.Execute(w, docsPage{
		Title:   "Nursery Platform API Documentation",
		SpecURL: "/api/docs/openapi.json",
		Assets:  "https://unpkg.com/swagger-ui-dist@" + swaggerUIVersion,
	})
}
