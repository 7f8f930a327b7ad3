package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"inkwell/auth"
	"inkwell/domain"
	"inkwell/errs"
)

func (s *Server) registerPostRoutes(r *mux.Router) {
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/follow/", s.requireAuth(s.handleFollowIndex)).Methods("GET")
	r.HandleFunc("/create/", s.requireAuth(s.handleCreatePostForm)).Methods("GET")
	r.HandleFunc("/create/", s.requireAuth(s.handleCreatePost)).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}/", s.handlePostDetail).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}/edit/", s.requireAuth(s.handleEditPostForm)).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}/edit/", s.requireAuth(s.handleEditPost)).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}/delete/", s.requireAuth(s.handleDeletePost)).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}/comment/", s.requireAuth(s.handleCreateComment)).Methods("POST")
}

// parsePage reads the 1-based page number from the query string.
// Anything unusable falls back to the first page.
func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// parsePostID reads the post ID route parameter. The route pattern already
// guarantees digits, so a missing ID is the only failure mode.
func parsePostID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, errs.Errorf(errs.ENOTFOUND, "The post does not exist.")
	}
	return id, nil
}

// attachImages loads the stored image attachments of every post in the slice.
func (s *Server) attachImages(posts []domain.Post) {
	for i := range posts {
		images, err := s.is.ByOwner(domain.OwnerTypePost, posts[i].ID)
		if err != nil {
			continue
		}
		posts[i].Images = images
	}
}

// timelineData bundles the fields the post_list partial expects.
func timelineData(posts []domain.Post, page int) map[string]interface{} {
	return map[string]interface{}{
		"Posts":    posts,
		"Page":     page,
		"HasPrev":  page > 1,
		"HasNext":  len(posts) == domain.PostsPerPage,
		"PrevPage": page - 1,
		"NextPage": page + 1,
	}
}

// handleIndex handles the route "GET /".
// It renders one page of the global timeline. The rendered page is cached
// per page number; see PageCache for the staleness contract.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	key := fmt.Sprintf("index:%d", page)

	if body, ok := s.cache.Get(key); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
		return
	}

	posts, err := s.ps.All(page)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.attachImages(posts)

	data := timelineData(posts, page)
	// The rendered body lands in the shared cache, so a visitor's flash
	// message must not be popped here or baked into it.
	data["Flash"] = ""
	body, err := s.renderPage(r, "index.html", data)
	if err != nil {
		errs.LogError(r, err)
		http.Error(w, "Something went wrong.", http.StatusInternalServerError)
		return
	}
	s.cache.Set(key, body)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// handleFollowIndex handles the route "GET /follow/".
// It renders one page of posts written by the authors the user follows.
func (s *Server) handleFollowIndex(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	page := parsePage(r)
	posts, err := s.ps.ByFollowed(user.ID, page)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.attachImages(posts)
	s.render(w, r, http.StatusOK, "follow.html", timelineData(posts, page))
}

// handlePostDetail handles the route "GET /posts/{id}/".
// It renders a single post with its comments, newest comment first.
func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parsePostID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	post, err := s.ps.ByID(id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if images, imgErr := s.is.ByOwner(domain.OwnerTypePost, post.ID); imgErr == nil {
		post.Images = images
	}
	s.render(w, r, http.StatusOK, "post_detail.html", map[string]interface{}{
		"Post":        post,
		"CommentText": "",
	})
}

// handleCreatePostForm handles the route "GET /create/".
func (s *Server) handleCreatePostForm(w http.ResponseWriter, r *http.Request) {
	groups, err := s.gs.All()
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "post_form.html", map[string]interface{}{
		"Text":    "",
		"Groups":  groups,
		"GroupID": 0,
	})
}

// handleCreatePost handles the route "POST /create/".
// The authenticated user becomes the author; the author field is never read
// from the form. On success the user is redirected to their profile.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	post, img, formErr := s.postFromForm(r)
	if formErr == nil {
		post.AuthorID = user.ID
		formErr = s.ps.Create(post)
	}
	if formErr == nil && img != nil {
		img.OwnerType = domain.OwnerTypePost
		img.OwnerID = post.ID
		// A post must not become visible with half its attachment missing,
		// so a failed upload takes the fresh post down with it.
		if imgErr := s.is.Create(img); imgErr != nil {
			_ = s.ps.Delete(post)
			formErr = imgErr
		}
	}
	if formErr != nil {
		if errs.ErrorCode(formErr) == errs.EINVALID || errs.ErrorCode(formErr) == errs.ENOTFOUND {
			groups, _ := s.gs.All()
			s.render(w, r, http.StatusOK, "post_form.html", map[string]interface{}{
				"Error":   errs.ErrorMessage(formErr),
				"Text":    post.Text,
				"Groups":  groups,
				"GroupID": 0,
			})
			return
		}
		s.renderError(w, r, formErr)
		return
	}

	s.cache.Invalidate()
	s.setFlash(w, r, "Your post has been published.")
	http.Redirect(w, r, "/profile/"+user.Username+"/", http.StatusFound)
}

// handleEditPostForm handles the route "GET /posts/{id}/edit/".
// Only the author gets the form; everyone else is sent to the detail page.
func (s *Server) handleEditPostForm(w http.ResponseWriter, r *http.Request) {
	post, ok := s.editablePost(w, r)
	if !ok {
		return
	}
	groups, err := s.gs.All()
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	groupID := 0
	if post.GroupID != nil {
		groupID = *post.GroupID
	}
	s.render(w, r, http.StatusOK, "post_form.html", map[string]interface{}{
		"Editing": true,
		"Post":    post,
		"Text":    post.Text,
		"GroupID": groupID,
		"Groups":  groups,
	})
}

// handleEditPost handles the route "POST /posts/{id}/edit/".
// It updates only the submitted fields; the post's identity, author and
// creation timestamp are untouched.
func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	post, ok := s.editablePost(w, r)
	if !ok {
		return
	}

	submitted, img, err := s.postFromForm(r)
	if err == nil {
		post.Text = submitted.Text
		post.GroupID = submitted.GroupID
		err = s.ps.Update(post)
	}
	if err == nil && img != nil {
		img.OwnerType = domain.OwnerTypePost
		img.OwnerID = post.ID
		err = s.is.Create(img)
	}
	if err != nil {
		if errs.ErrorCode(err) == errs.EINVALID || errs.ErrorCode(err) == errs.ENOTFOUND {
			groups, _ := s.gs.All()
			s.render(w, r, http.StatusOK, "post_form.html", map[string]interface{}{
				"Editing": true,
				"Post":    post,
				"Error":   errs.ErrorMessage(err),
				"Text":    submitted.Text,
				"Groups":  groups,
				"GroupID": 0,
			})
			return
		}
		s.renderError(w, r, err)
		return
	}

	s.cache.Invalidate()
	http.Redirect(w, r, fmt.Sprintf("/posts/%d/", post.ID), http.StatusFound)
}

// handleDeletePost handles the route "POST /posts/{id}/delete/".
// Only the author may delete; the post's images go with it.
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	post, ok := s.editablePost(w, r)
	if !ok {
		return
	}
	if err := s.ps.Delete(post); err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := s.is.DeleteAll(domain.OwnerTypePost, post.ID); err != nil {
		errs.LogError(r, err)
	}
	s.cache.Invalidate()
	s.setFlash(w, r, "Your post has been deleted.")
	http.Redirect(w, r, "/profile/"+user.Username+"/", http.StatusFound)
}

// handleCreateComment handles the route "POST /posts/{id}/comment/".
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	id, err := parsePostID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, errs.Errorf(errs.EINVALID, "The submitted form could not be read."))
		return
	}
	comment := domain.Comment{
		PostID:   id,
		AuthorID: user.ID,
		Text:     r.PostFormValue("text"),
	}
	if err := s.cs.Create(&comment); err != nil {
		if errs.ErrorCode(err) == errs.EINVALID {
			post, detailErr := s.ps.ByID(id)
			if detailErr != nil {
				s.renderError(w, r, detailErr)
				return
			}
			s.render(w, r, http.StatusOK, "post_detail.html", map[string]interface{}{
				"Post":         post,
				"CommentError": errs.ErrorMessage(err),
				"CommentText":  comment.Text,
			})
			return
		}
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/posts/%d/", id), http.StatusFound)
}

// editablePost loads the requested post and enforces the author-only rule:
// a missing post renders not-found, somebody else's post redirects to its
// detail page without leaking why. The bool reports whether the caller may
// proceed.
func (s *Server) editablePost(w http.ResponseWriter, r *http.Request) (*domain.Post, bool) {
	id, err := parsePostID(r)
	if err != nil {
		s.renderError(w, r, err)
		return nil, false
	}
	post, err := s.ps.ByID(id)
	if err != nil {
		s.renderError(w, r, err)
		return nil, false
	}
	user := auth.GetUser(r.Context())
	if post.AuthorID != user.ID {
		http.Redirect(w, r, fmt.Sprintf("/posts/%d/", post.ID), http.StatusFound)
		return nil, false
	}
	return post, true
}

// postFromForm reads text, group and the optional image upload out of a
// post form. The form may arrive url-encoded (no image picked) or as
// multipart. The returned image is nil when no file was submitted.
func (s *Server) postFromForm(r *http.Request) (*domain.Post, *domain.Image, error) {
	post := &domain.Post{}

	contentType := r.Header.Get("Content-Type")
	multipart := len(contentType) >= 19 && contentType[:19] == "multipart/form-data"
	if multipart {
		if err := r.ParseMultipartForm(domain.MaxUploadSize); err != nil {
			return post, nil, errs.Errorf(errs.EINVALID, "The submitted form could not be read.")
		}
	} else if err := r.ParseForm(); err != nil {
		return post, nil, errs.Errorf(errs.EINVALID, "The submitted form could not be read.")
	}

	post.Text = r.PostFormValue("text")
	if groupStr := r.PostFormValue("group"); groupStr != "" {
		groupID, err := strconv.Atoi(groupStr)
		if err != nil {
			return post, nil, errs.Errorf(errs.EINVALID, "The selected group is invalid.")
		}
		post.GroupID = &groupID
	}

	if !multipart || r.MultipartForm == nil || len(r.MultipartForm.File["image"]) == 0 {
		return post, nil, nil
	}
	fileHeader := r.MultipartForm.File["image"][0]
	file, err := fileHeader.Open()
	if err != nil {
		return post, nil, err
	}
	img := &domain.Image{
		File:     file,
		Filename: fileHeader.Filename,
	}
	return post, img, nil
}
