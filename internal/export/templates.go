package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/report.html")
	if err != nil {
		// Fallback to built-in template if file not found
		reportTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	reportTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(string(templateContent)))
}

// TemplateData holds data for report template rendering.
type TemplateData struct {
	PropertyName string
	Address      string
	HeroTitle    string
	HeroSubtitle string
	About        string
	Amenities    string
	ContactEmail string
	ContactPhone string
	Rooms        []TemplateRoom
	Events       []TemplateEvent
	GeneratedAt  time.Time
}

// TemplateRoom holds one room row for the report.
type TemplateRoom struct {
	RoomType      string
	PricePerNight string
	Capacity      string
	State         string
}

// TemplateEvent holds one sync-event row for the report.
type TemplateEvent struct {
	Action    string
	Outcome   string
	Message   string
	CreatedAt time.Time
}

// RenderReportHTML renders the report template with provided data.
func RenderReportHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load.
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.PropertyName}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    table { width: 100%; border-collapse: collapse; margin: 1rem 0; }
    th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
    .event { background: #f5f5f5; padding: 0.5rem 1rem; margin: 0.5rem 0; border-left: 3px solid #333; }
  </style>
</head>
<body>
  <h1>{{.PropertyName}}</h1>
  <div class="meta">{{.Address}} | generated {{.GeneratedAt.Format "Jan 2, 2006"}}</div>
  {{if .HeroTitle}}<h2>{{.HeroTitle}}</h2>{{end}}
  {{if .HeroSubtitle}}<p>{{.HeroSubtitle}}</p>{{end}}
  {{if .About}}<p>{{.About}}</p>{{end}}
  {{if .Amenities}}<p><strong>Amenities:</strong> {{.Amenities}}</p>{{end}}
  {{if or .ContactEmail .ContactPhone}}<p>{{.ContactEmail}} {{.ContactPhone}}</p>{{end}}
  {{if .Rooms}}
  <h2>Rooms</h2>
  <table>
    <tr><th>Type</th><th>Price per night</th><th>Capacity</th><th>Status</th></tr>
    {{range .Rooms}}<tr><td>{{.RoomType}}</td><td>{{.PricePerNight}}</td><td>{{.Capacity}}</td><td>{{lower .State}}</td></tr>{{end}}
  </table>
  {{end}}
  {{if .Events}}
  <h2>Recent activity</h2>
  {{range .Events}}<div class="event">{{.Action}} {{.Outcome}}{{if .Message}}: {{.Message}}{{end}} ({{formatDate .CreatedAt "Jan 2, 2006 15:04"}})</div>{{end}}
  {{end}}
</body>
</html>`
