package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/csrf"

	"inkwell/auth"
	"inkwell/errs"
)

//go:embed templates
var templatesFS embed.FS

// pageTemplates lists the page templates. Each one is parsed together with
// the base layout and the shared partials.
var pageTemplates = []string{
	"index.html",
	"group.html",
	"group_form.html",
	"profile.html",
	"post_detail.html",
	"post_form.html",
	"follow.html",
	"login.html",
	"signup.html",
	"404.html",
}

// Renderer renders web pages through a set of templates. The key is a page
// template name, the value is that page parsed with the base layout.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses all embedded page templates. A broken template is a
// programming error, so it panics like template.Must would.
func NewRenderer() *Renderer {
	templates := make(map[string]*template.Template)
	for _, page := range pageTemplates {
		t := template.Must(template.ParseFS(templatesFS,
			"templates/base.html",
			"templates/post_list.html",
			"templates/"+page,
		))
		templates[page] = t
	}
	return &Renderer{templates: templates}
}

// Render executes the named page into w with the given data.
func (rd *Renderer) Render(w *bytes.Buffer, page string, data map[string]interface{}) error {
	t, ok := rd.templates[page]
	if !ok {
		return fmt.Errorf("render: unknown template %q", page)
	}
	return t.ExecuteTemplate(w, "base.html", data)
}

// renderPage renders a page to bytes, filling in the request-scoped fields
// (authenticated user, CSRF field) that every template expects.
func (s *Server) renderPage(r *http.Request, page string, data map[string]interface{}) ([]byte, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	if _, ok := data["User"]; !ok {
		data["User"] = auth.GetUser(r.Context())
	}
	data["CSRFField"] = csrf.TemplateField(r)
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, page, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// render writes a fully rendered page to the response, popping a pending
// flash message unless the caller provided one.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = s.popFlash(w, r)
	}
	body, err := s.renderPage(r, page, data)
	if err != nil {
		errs.LogError(r, err)
		http.Error(w, "Something went wrong.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// handleNotFound renders the custom not-found page for unknown paths and
// missing resources alike.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "404.html", nil)
}

// renderError maps a service error to the right presentation: a missing
// resource gets the not-found page, anything unexpected a plain 500.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch errs.ErrorCode(err) {
	case errs.ENOTFOUND:
		s.handleNotFound(w, r)
	default:
		errs.LogError(r, err)
		http.Error(w, "Something went wrong.", http.StatusInternalServerError)
	}
}
