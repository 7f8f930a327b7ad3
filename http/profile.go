package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"inkwell/auth"
)

func (s *Server) registerProfileRoutes(r *mux.Router) {
	r.HandleFunc("/profile/{username}/", s.handleProfile).Methods("GET")
}

// handleProfile handles the route "GET /profile/{username}/".
// It renders one page of the user's posts, newest first. An unknown
// username gets the not-found page.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.us.ByUsername(mux.Vars(r)["username"])
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	page := parsePage(r)
	posts, err := s.ps.ByAuthor(profile.ID, page)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.attachImages(posts)

	data := timelineData(posts, page)
	data["Profile"] = profile
	if user := auth.GetUser(r.Context()); user != nil && user.ID != profile.ID {
		data["Following"] = s.fs.Following(user.ID, profile.ID)
		data["CanFollow"] = true
	}
	s.render(w, r, http.StatusOK, "profile.html", data)
}
