package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"inkwell/auth"
	"inkwell/domain"
	"inkwell/errs"
)

const (
	rememberCookieName = "remember_token"
	loginPath          = "/auth/login/"
)

func (s *Server) registerAuthRoutes(r *mux.Router) {
	r.HandleFunc("/auth/signup/", s.handleSignupForm).Methods("GET")
	r.HandleFunc("/auth/signup/", s.handleSignup).Methods("POST")
	r.HandleFunc(loginPath, s.handleLoginForm).Methods("GET")
	r.HandleFunc(loginPath, s.handleLogin).Methods("POST")
	r.HandleFunc("/auth/logout/", s.requireAuth(s.handleLogout)).Methods("POST")
}

func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "signup.html", map[string]interface{}{
		"Username": "",
		"Email":    "",
	})
}

// handleSignup creates a new user from the submitted form and signs them in.
// A validation failure re-renders the form with the message and the entered
// values, without anything being persisted.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "signup.html", map[string]interface{}{
			"Error": "The submitted form could not be read.",
		})
		return
	}
	user := domain.User{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if err := s.us.Create(&user); err != nil {
		if errs.ErrorCode(err) == errs.EINVALID {
			s.render(w, r, http.StatusOK, "signup.html", map[string]interface{}{
				"Error":    errs.ErrorMessage(err),
				"Username": user.Username,
				"Email":    user.Email,
			})
			return
		}
		s.renderError(w, r, err)
		return
	}
	if err := s.signIn(w, r, &user); err != nil {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", map[string]interface{}{
		"Email": "",
		"Next":  r.URL.Query().Get("next"),
	})
}

// handleLogin authenticates the submitted credentials and signs the user
// in. On success the user is sent back to the page they originally asked
// for, if any.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "login.html", map[string]interface{}{
			"Error": "The submitted form could not be read.",
		})
		return
	}
	email := r.PostFormValue("email")
	next := r.PostFormValue("next")
	user, err := s.us.Authenticate(email, r.PostFormValue("password"))
	if err != nil {
		if errs.ErrorCode(err) == errs.EINVALID {
			s.render(w, r, http.StatusOK, "login.html", map[string]interface{}{
				"Error": errs.ErrorMessage(err),
				"Email": email,
				"Next":  next,
			})
			return
		}
		s.renderError(w, r, err)
		return
	}
	if err := s.signIn(w, r, user); err != nil {
		s.renderError(w, r, err)
		return
	}
	// Only ever redirect within the app, no matter what next says.
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// handleLogout rotates the user's remember token, so that every other
// session with the old cookie is signed out too, and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	token, err := s.us.MakeRememberToken()
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	user.Remember = token
	if err := s.us.Update(user); err != nil {
		s.renderError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     rememberCookieName,
		Value:    "",
		Expires:  time.Now(),
		HttpOnly: true,
		Path:     "/",
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// signIn is used to sign the given user in via cookies.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	if user.Remember == "" {
		token, err := s.us.MakeRememberToken()
		if err != nil {
			return err
		}
		user.Remember = token
		if err = s.us.Update(user); err != nil {
			return err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     rememberCookieName,
		Value:    user.Remember,
		HttpOnly: true,
		Path:     "/",
	})
	return nil
}
