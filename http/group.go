package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"inkwell/domain"
	"inkwell/errs"
)

func (s *Server) registerGroupRoutes(r *mux.Router) {
	// The fixed /group/create/ path has to be registered before the slug
	// route, or it would resolve as a group named "create".
	r.HandleFunc("/group/create/", s.requireAuth(s.handleCreateGroupForm)).Methods("GET")
	r.HandleFunc("/group/create/", s.requireAuth(s.handleCreateGroup)).Methods("POST")
	r.HandleFunc("/group/{slug}/", s.handleGroupIndex).Methods("GET")
}

// handleGroupIndex handles the route "GET /group/{slug}/".
// It renders one page of the posts filed under the group. An unknown slug
// gets the not-found page.
func (s *Server) handleGroupIndex(w http.ResponseWriter, r *http.Request) {
	group, err := s.gs.BySlug(mux.Vars(r)["slug"])
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	page := parsePage(r)
	posts, err := s.ps.ByGroup(group.ID, page)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.attachImages(posts)
	data := timelineData(posts, page)
	data["Group"] = group
	s.render(w, r, http.StatusOK, "group.html", data)
}

// handleCreateGroupForm handles the route "GET /group/create/".
func (s *Server) handleCreateGroupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "group_form.html", map[string]interface{}{
		"Title":       "",
		"Slug":        "",
		"Description": "",
	})
}

// handleCreateGroup handles the route "POST /group/create/".
// The slug may be left empty, in which case it is derived from the title.
func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "group_form.html", map[string]interface{}{
			"Error": "The submitted form could not be read.",
		})
		return
	}
	group := domain.Group{
		Title:       r.PostFormValue("title"),
		Slug:        r.PostFormValue("slug"),
		Description: r.PostFormValue("description"),
	}
	if err := s.gs.Create(&group); err != nil {
		if errs.ErrorCode(err) == errs.EINVALID {
			s.render(w, r, http.StatusOK, "group_form.html", map[string]interface{}{
				"Error":       errs.ErrorMessage(err),
				"Title":       group.Title,
				"Slug":        group.Slug,
				"Description": group.Description,
			})
			return
		}
		s.renderError(w, r, err)
		return
	}
	s.setFlash(w, r, "The group has been created.")
	http.Redirect(w, r, "/group/"+group.Slug+"/", http.StatusFound)
}
