package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"inkwell/auth"
	"inkwell/errs"
)

func (s *Server) registerFollowRoutes(r *mux.Router) {
	r.HandleFunc("/profile/{username}/follow/", s.requireAuth(s.handleFollow)).Methods("GET")
	r.HandleFunc("/profile/{username}/unfollow/", s.requireAuth(s.handleUnfollow)).Methods("GET")
}

// handleFollow handles the route "GET /profile/{username}/follow/".
// Following somebody twice is a no-op, and trying to follow yourself just
// goes back to the profile without creating anything.
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	author, err := s.us.ByUsername(mux.Vars(r)["username"])
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := s.fs.Follow(user.ID, author.ID); err != nil && errs.ErrorCode(err) != errs.EINVALID {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile/"+author.Username+"/", http.StatusFound)
}

// handleUnfollow handles the route "GET /profile/{username}/unfollow/".
// Unfollowing somebody you don't follow is a no-op.
func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	author, err := s.us.ByUsername(mux.Vars(r)["username"])
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := s.fs.Unfollow(user.ID, author.ID); err != nil {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile/"+author.Username+"/", http.StatusFound)
}
