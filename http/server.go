package http

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"inkwell/auth"
	"inkwell/crud"
	"inkwell/domain"
)

// IndexCacheTTL is the staleness window of the cached global timeline.
// Mutations through the post handlers invalidate the cache immediately;
// anything that writes to the store directly is visible at the latest after
// this window.
const IndexCacheTTL = 20 * time.Second

const flashSessionName = "inkwell_flash"

// Server provides the http functionality of this app, namely routing,
// request handling, template rendering and middleware. It performs
// authentication and authorization before handing things over to one of
// the crud services.
type Server struct {
	router   *mux.Router
	renderer *Renderer
	sessions *sessions.CookieStore
	cache    *PageCache
	github   *oauth2.Config

	us domain.UserService
	os domain.OAuthService
	gs domain.GroupService
	ps domain.PostService
	cs domain.CommentService
	fs domain.FollowService
	is domain.ImageService
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the app services passed in.
func NewServer(isProd bool, csrfKey, sessionKey string, github *oauth2.Config, services *crud.Services) *Server {
	s := &Server{
		router:   mux.NewRouter().StrictSlash(true),
		renderer: NewRenderer(),
		sessions: sessions.NewCookieStore([]byte(sessionKey)),
		cache:    NewPageCache(IndexCacheTTL),
		github:   github,
		us:       services.User,
		os:       services.OAuth,
		gs:       services.Group,
		ps:       services.Post,
		cs:       services.Comment,
		fs:       services.Follow,
		is:       services.Image,
	}

	// Register routes of the auth system.
	s.registerAuthRoutes(s.router)
	s.registerOAuthRoutes(s.router)

	// Register routes of the content system. Fixed paths must come before
	// the parameterized ones so that /group/create/ doesn't resolve as a
	// group named "create".
	s.registerGroupRoutes(s.router)
	s.registerPostRoutes(s.router)
	s.registerFollowRoutes(s.router)
	s.registerProfileRoutes(s.router)

	// Serve uploaded post images.
	s.router.PathPrefix("/" + domain.ImagesBaseDir + "/").
		Handler(http.StripPrefix("/"+domain.ImagesBaseDir+"/", http.FileServer(http.Dir(domain.ImagesBaseDir))))

	// Unknown paths get the custom not-found page.
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	// Set up middleware that needs to run on every request. CSRF protection
	// only runs in production so that form posts in handler tests don't need
	// to round-trip a token first.
	if isProd {
		csrfMw := csrf.Protect([]byte(csrfKey), csrf.Path("/"))
		s.router.Use(csrfMw)
	}
	s.router.Use(s.checkUser)

	return s
}

// ServeHTTP makes the server usable as an http.Handler, which is what both
// Run and the handler tests go through.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run starts to listen and serve on the specified port.
func (s *Server) Run(port int) {
	log.Printf("[http] listening on :%d", port)
	log.Fatal(http.ListenAndServe(":"+strconv.Itoa(port), s))
}

// The checkUser middleware looks up the user behind the request's remember
// cookie and, if found, stores the user in the request context. Requests
// for static images skip the lookup.
func (s *Server) checkUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/"+domain.ImagesBaseDir+"/") {
			next.ServeHTTP(w, r)
			return
		}
		cookie, err := r.Cookie(rememberCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.us.ByRemember(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		r = r.WithContext(auth.SetUser(r.Context(), user))
		next.ServeHTTP(w, r)
	})
}

// requireAuth guards a handler that needs an authenticated user. Anonymous
// requests are redirected to the login page, with the originally requested
// path preserved as the return target.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			http.Redirect(w, r, loginPath+"?next="+r.URL.Path, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// setFlash stores a one-shot notice for the next rendered page.
func (s *Server) setFlash(w http.ResponseWriter, r *http.Request, msg string) {
	session, err := s.sessions.Get(r, flashSessionName)
	if err != nil {
		return
	}
	session.AddFlash(msg)
	_ = session.Save(r, w)
}

// popFlash returns the pending notice, if any, and clears it.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) string {
	session, err := s.sessions.Get(r, flashSessionName)
	if err != nil {
		return ""
	}
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	_ = session.Save(r, w)
	if msg, ok := flashes[0].(string); ok {
		return msg
	}
	return ""
}
