package webapp

import (
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"academic-erp/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// pageData is the single view model shared by all templates; each page reads
// the fields it needs.
type pageData struct {
	Title    string
	Email    string
	LoggedIn bool

	Error       string
	Message     string
	FieldErrors map[string]string

	Orgs  []models.Organisation
	Org   *models.Organisation
	Query string

	Form organisationForm
	Mode string

	GoogleLoginURL string
	RefreshURL     string
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("template render failed", zap.String("template", name), zap.Error(err))
	}
}
