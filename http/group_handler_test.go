package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/domain"
)

func TestCreateGroupHandler(t *testing.T) {
	s, services := newTestServer(t)
	_, cookie := signedUpUser(t, services, "alice")

	w := doPostForm(s, "/group/create/", url.Values{
		"title":       {"Го для начинающих"},
		"description": {"Learning together"},
	}, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/group/go-dlya-nachinayushchih/", w.Header().Get("Location"))

	group, err := services.Group.BySlug("go-dlya-nachinayushchih")
	require.NoError(t, err)
	assert.Equal(t, "Го для начинающих", group.Title)
}

func TestCreateGroupSlugCollisionRerenders(t *testing.T) {
	s, services := newTestServer(t)
	_, cookie := signedUpUser(t, services, "alice")
	require.NoError(t, services.Group.Create(&domain.Group{Title: "Gophers"}))

	w := doPostForm(s, "/group/create/", url.Values{"title": {"gophers"}}, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already taken")
}

func TestGroupPageListsOnlyGroupPosts(t *testing.T) {
	s, services := newTestServer(t)
	alice, _ := signedUpUser(t, services, "alice")

	group := &domain.Group{Title: "Cats"}
	require.NoError(t, services.Group.Create(group))

	inGroup := &domain.Post{AuthorID: alice.ID, Text: "about cats", GroupID: &group.ID}
	require.NoError(t, services.Post.Create(inGroup))
	outside := &domain.Post{AuthorID: alice.ID, Text: "about weather"}
	require.NoError(t, services.Post.Create(outside))

	w := doGet(s, "/group/cats/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cats")
	assert.Contains(t, w.Body.String(), "about cats")
	assert.NotContains(t, w.Body.String(), "about weather")
}

func TestGroupPageUnknownSlug(t *testing.T) {
	s, _ := newTestServer(t)

	w := doGet(s, "/group/no-such-group/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "404: Page not found")
}

func TestGroupCreateRequiresAuth(t *testing.T) {
	s, _ := newTestServer(t)

	w := doGet(s, "/group/create/", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=/group/create/", w.Header().Get("Location"))
}
