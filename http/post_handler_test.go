package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/domain"
	"inkwell/errs"
)

func TestCreatePostHandler(t *testing.T) {
	s, services := newTestServer(t)
	alice, cookie := signedUpUser(t, services, "alice")

	w := doPostForm(s, "/create/", url.Values{"text": {"my first post"}}, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/alice/", w.Header().Get("Location"))

	posts, err := services.Post.ByAuthor(alice.ID, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "my first post", posts[0].Text)
}

func TestCreatePostValidationRerenders(t *testing.T) {
	s, services := newTestServer(t)
	_, cookie := signedUpUser(t, services, "alice")

	w := doPostForm(s, "/create/", url.Values{"text": {"   "}}, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Post text must not be empty.")
}

func TestCreatePostInGroup(t *testing.T) {
	s, services := newTestServer(t)
	alice, cookie := signedUpUser(t, services, "alice")

	group := &domain.Group{Title: "Gophers"}
	require.NoError(t, services.Group.Create(group))

	w := doPostForm(s, "/create/", url.Values{
		"text":  {"grouped post"},
		"group": {fmt.Sprintf("%d", group.ID)},
	}, cookie)
	require.Equal(t, http.StatusFound, w.Code)

	posts, err := services.Post.ByGroup(group.ID, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, alice.ID, posts[0].AuthorID)
}

func TestEditPostByAuthor(t *testing.T) {
	s, services := newTestServer(t)
	alice, cookie := signedUpUser(t, services, "alice")

	post := &domain.Post{AuthorID: alice.ID, Text: "draft", CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, services.Post.Create(post))
	createdAt := post.CreatedAt

	w := doPostForm(s, fmt.Sprintf("/posts/%d/edit/", post.ID), url.Values{"text": {"polished"}}, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	found, err := services.Post.ByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "polished", found.Text)
	assert.True(t, found.CreatedAt.Equal(createdAt))
}

func TestEditPostByNonAuthor(t *testing.T) {
	s, services := newTestServer(t)
	alice, _ := signedUpUser(t, services, "alice")
	_, bobCookie := signedUpUser(t, services, "bob")

	post := &domain.Post{AuthorID: alice.ID, Text: "untouchable"}
	require.NoError(t, services.Post.Create(post))

	// Somebody else's edit attempt bounces to the detail page and changes
	// nothing, for the form and the submit alike.
	w := doGet(s, fmt.Sprintf("/posts/%d/edit/", post.ID), bobCookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	w = doPostForm(s, fmt.Sprintf("/posts/%d/edit/", post.ID), url.Values{"text": {"defaced"}}, bobCookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	found, err := services.Post.ByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "untouchable", found.Text)
	assert.Equal(t, alice.ID, found.AuthorID)
}

func TestDeletePostByAuthor(t *testing.T) {
	s, services := newTestServer(t)
	alice, cookie := signedUpUser(t, services, "alice")

	post := &domain.Post{AuthorID: alice.ID, Text: "short lived"}
	require.NoError(t, services.Post.Create(post))

	w := doPostForm(s, fmt.Sprintf("/posts/%d/delete/", post.ID), url.Values{}, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/alice/", w.Header().Get("Location"))

	_, err := services.Post.ByID(post.ID)
	require.Error(t, err)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}

func TestPostDetailPage(t *testing.T) {
	s, services := newTestServer(t)
	alice, _ := signedUpUser(t, services, "alice")

	post := &domain.Post{AuthorID: alice.ID, Text: "worth reading"}
	require.NoError(t, services.Post.Create(post))
	require.NoError(t, services.Comment.Create(&domain.Comment{
		PostID: post.ID, AuthorID: alice.ID, Text: "self reply",
	}))

	w := doGet(s, fmt.Sprintf("/posts/%d/", post.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "worth reading")
	assert.Contains(t, w.Body.String(), "self reply")
}

func TestCreateCommentHandler(t *testing.T) {
	s, services := newTestServer(t)
	alice, _ := signedUpUser(t, services, "alice")
	_, bobCookie := signedUpUser(t, services, "bob")

	post := &domain.Post{AuthorID: alice.ID, Text: "discussed"}
	require.NoError(t, services.Post.Create(post))

	w := doPostForm(s, fmt.Sprintf("/posts/%d/comment/", post.ID), url.Values{"text": {"well said"}}, bobCookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	comments, err := services.Comment.ByPost(post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "well said", comments[0].Text)
	assert.Equal(t, "bob", comments[0].Author.Username)
}

func TestCreateCommentValidationRerenders(t *testing.T) {
	s, services := newTestServer(t)
	alice, cookie := signedUpUser(t, services, "alice")

	post := &domain.Post{AuthorID: alice.ID, Text: "discussed"}
	require.NoError(t, services.Post.Create(post))

	w := doPostForm(s, fmt.Sprintf("/posts/%d/comment/", post.ID), url.Values{"text": {"   "}}, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Comment text must not be empty.")
}

func TestIndexCachesRenderedPage(t *testing.T) {
	s, services := newTestServer(t)
	alice, _ := signedUpUser(t, services, "alice")

	post := &domain.Post{AuthorID: alice.ID, Text: "first post"}
	require.NoError(t, services.Post.Create(post))

	w := doGet(s, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "first post")

	// A write that bypasses the handlers stays invisible while the cached
	// page lives.
	second := &domain.Post{AuthorID: alice.ID, Text: "second post"}
	require.NoError(t, services.Post.Create(second))

	w = doGet(s, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "second post")

	s.cache.Invalidate()
	w = doGet(s, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "second post")
}

func TestIndexHugePageNumber(t *testing.T) {
	s, services := newTestServer(t)
	alice, _ := signedUpUser(t, services, "alice")
	require.NoError(t, services.Post.Create(&domain.Post{AuthorID: alice.ID, Text: "only post"}))

	// A page far past the end renders empty instead of echoing page one.
	w := doGet(s, "/?page=922337203685477582", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "only post")
	assert.Contains(t, w.Body.String(), "No posts yet.")
}

func TestIndexLeavesFlashAlone(t *testing.T) {
	s, services := newTestServer(t)
	alice, _ := signedUpUser(t, services, "alice")
	require.NoError(t, services.Post.Create(&domain.Post{AuthorID: alice.ID, Text: "something"}))

	// Park a flash message in the visitor's session.
	rec := httptest.NewRecorder()
	s.setFlash(rec, httptest.NewRequest("GET", "/", nil), "made it here")
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashSessionName {
			session = c
		}
	}
	require.NotNil(t, session)

	// The index neither shows the pending flash nor consumes it, its body
	// is shared with every visitor through the cache.
	w := doGet(s, "/", session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "made it here")

	// An anonymous visitor served the cached body never sees it either.
	w = doGet(s, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "made it here")

	// The message is still pending and pops on the next regular page.
	w = doGet(s, "/profile/alice/", session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "made it here")
}

func TestCreatePostInvalidatesIndexCache(t *testing.T) {
	s, services := newTestServer(t)
	_, cookie := signedUpUser(t, services, "alice")

	w := doGet(s, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doPostForm(s, "/create/", url.Values{"text": {"hot off the press"}}, cookie)
	require.Equal(t, http.StatusFound, w.Code)

	w = doGet(s, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hot off the press")
}
