package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"inkwell/domain"
	"inkwell/errs"
)

const githubProvider = "github"

const oauthSessionName = "inkwell_oauth"

func (s *Server) registerOAuthRoutes(r *mux.Router) {
	r.HandleFunc("/auth/github/", s.handleGithubLogin).Methods("GET")
	r.HandleFunc("/auth/github/callback/", s.handleGithubCallback).Methods("GET")
}

// handleGithubLogin sends the user to GitHub's consent page, with a random
// state value stored in the session to tie the callback to this browser.
func (s *Server) handleGithubLogin(w http.ResponseWriter, r *http.Request) {
	state, err := s.us.MakeRememberToken()
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	session, err := s.sessions.Get(r, oauthSessionName)
	if err == nil {
		session.Values["state"] = state
		_ = session.Save(r, w)
	}
	http.Redirect(w, r, s.github.AuthCodeURL(state), http.StatusFound)
}

// githubUser is the part of GitHub's user payload we care about.
type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
}

// handleGithubCallback finishes the OAuth dance: it exchanges the code for
// a token, asks GitHub who the user is, links or creates the local account
// and signs it in.
func (s *Server) handleGithubCallback(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r, oauthSessionName)
	if err != nil || session.Values["state"] != r.URL.Query().Get("state") {
		s.render(w, r, http.StatusOK, "login.html", map[string]interface{}{
			"Error": "The GitHub login could not be verified, please try again.",
			"Email": "",
			"Next":  "",
		})
		return
	}
	delete(session.Values, "state")
	_ = session.Save(r, w)

	token, err := s.github.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	client := s.github.Client(r.Context(), token)
	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	defer resp.Body.Close()
	var ghUser githubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		s.renderError(w, r, err)
		return
	}

	user, err := s.userForGithub(&ghUser)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := s.signIn(w, r, user); err != nil {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// userForGithub returns the local user linked to the GitHub account,
// creating the link and, if needed, the user on first login.
func (s *Server) userForGithub(ghUser *githubUser) (*domain.User, error) {
	providerUserID := strconv.FormatInt(ghUser.ID, 10)
	oauth, err := s.os.ByProviderUserID(githubProvider, providerUserID)
	if err == nil {
		return s.us.ByID(oauth.UserID)
	}
	if errs.ErrorCode(err) != errs.ENOTFOUND {
		return nil, err
	}

	// First GitHub login: create a local account. GitHub logins may collide
	// with existing usernames, in which case the GitHub ID disambiguates.
	password, err := s.us.MakeRememberToken()
	if err != nil {
		return nil, err
	}
	email := ghUser.Email
	if email == "" {
		email = fmt.Sprintf("%s@users.noreply.github.com", ghUser.Login)
	}
	user := domain.User{
		Username: ghUser.Login,
		Email:    email,
		Password: password,
	}
	if err := s.us.Create(&user); err != nil {
		if errs.ErrorCode(err) != errs.EINVALID {
			return nil, err
		}
		user.Username = fmt.Sprintf("%s-%s", ghUser.Login, providerUserID)
		user.Password = password
		if err := s.us.Create(&user); err != nil {
			return nil, err
		}
	}
	err = s.os.Create(&domain.OAuth{
		UserID:         user.ID,
		Provider:       githubProvider,
		ProviderUserID: providerUserID,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
