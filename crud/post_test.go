package crud

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/domain"
	"inkwell/errs"
)

func TestPostCreateTextRequired(t *testing.T) {
	db := testDB(t)
	ps := NewPostService(db)
	author := testUser(t, db, "writer")

	err := ps.Create(&domain.Post{AuthorID: author.ID, Text: "   \n\t "})
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
}

func TestPostCreateAuthorRequired(t *testing.T) {
	ps := NewPostService(testDB(t))

	err := ps.Create(&domain.Post{Text: "orphaned"})
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
}

func TestPostCreateUnknownGroup(t *testing.T) {
	db := testDB(t)
	ps := NewPostService(db)
	author := testUser(t, db, "writer")

	groupID := 999
	err := ps.Create(&domain.Post{AuthorID: author.ID, Text: "hello", GroupID: &groupID})
	require.Error(t, err)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}

func TestPostCreateLoadsAuthor(t *testing.T) {
	db := testDB(t)
	ps := NewPostService(db)
	author := testUser(t, db, "writer")

	post := &domain.Post{AuthorID: author.ID, Text: "hello"}
	require.NoError(t, ps.Create(post))
	assert.Equal(t, "writer", post.Author.Username)
}

func TestPostAllPagination(t *testing.T) {
	db := testDB(t)
	ps := NewPostService(db)
	author := testUser(t, db, "writer")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		testPost(t, db, author.ID, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	// First page holds the ten newest posts, newest first.
	page1, err := ps.All(1)
	require.NoError(t, err)
	require.Len(t, page1, domain.PostsPerPage)
	assert.Equal(t, "post 24", page1[0].Text)
	assert.Equal(t, "post 15", page1[9].Text)

	page3, err := ps.All(3)
	require.NoError(t, err)
	require.Len(t, page3, 5)
	assert.Equal(t, "post 4", page3[0].Text)
	assert.Equal(t, "post 0", page3[4].Text)

	// A page past the end is empty, not an error.
	page4, err := ps.All(4)
	require.NoError(t, err)
	assert.Empty(t, page4)

	// Garbage page numbers fall back to the first page.
	pageNeg, err := ps.All(-3)
	require.NoError(t, err)
	require.Len(t, pageNeg, domain.PostsPerPage)
	assert.Equal(t, "post 24", pageNeg[0].Text)
}

func TestPostAllHugePageNumber(t *testing.T) {
	db := testDB(t)
	ps := NewPostService(db)
	author := testUser(t, db, "writer")
	testPost(t, db, author.ID, "lonely post", time.Now())

	// A page number near the int limit must not wrap into a negative
	// offset and resurface the first page.
	posts, err := ps.All(922337203685477582)
	require.NoError(t, err)
	assert.Empty(t, posts)

	posts, err = ps.All(math.MaxInt)
	require.NoError(t, err)
	assert.Empty(t, posts)

	posts, err = ps.ByAuthor(author.ID, math.MaxInt)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostOrderTieBreak(t *testing.T) {
	db := testDB(t)
	ps := NewPostService(db)
	author := testUser(t, db, "writer")

	// Two posts sharing one timestamp, the later insert wins.
	at := time.Now().Truncate(time.Second)
	testPost(t, db, author.ID, "first", at)
	testPost(t, db, author.ID, "second", at)

	posts, err := ps.All(1)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Text)
	assert.Equal(t, "first", posts[1].Text)
}

func TestPostByGroupFilters(t *testing.T) {
	db := testDB(t)
	ps := NewPostService(db)
	gs := NewGroupService(db)
	author := testUser(t, db, "writer")

	group := &domain.Group{Title: "Cats"}
	require.NoError(t, gs.Create(group))
	other := &domain.Group{Title: "Dogs"}
	require.NoError(t, gs.Create(other))

	now := time.Now()
	inGroup := &domain.Post{AuthorID: author.ID, Text: "meow", GroupID: &group.ID, CreatedAt: now}
	require.NoError(t, ps.Create(inGroup))
	inOther := &domain.Post{AuthorID: author.ID, Text: "woof", GroupID: &other.ID, CreatedAt: now}
	require.NoError(t, ps.Create(inOther))
	testPost(t, db, author.ID, "no group", now)

	posts, err := ps.ByGroup(group.ID, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "meow", posts[0].Text)
}

func TestPostByAuthorFilters(t *testing.T) {
	db := testDB(t)
	ps := NewPostService(db)
	alice := testUser(t, db, "alice")
	bob := testUser(t, db, "bob")

	now := time.Now()
	testPost(t, db, alice.ID, "by alice", now)
	testPost(t, db, bob.ID, "by bob", now)

	posts, err := ps.ByAuthor(alice.ID, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "by alice", posts[0].Text)
}

func TestPostUpdateKeepsAuthorAndCreatedAt(t *testing.T) {
	db := testDB(t)
	ps := NewPostService(db)
	alice := testUser(t, db, "alice")
	bob := testUser(t, db, "bob")

	createdAt := time.Now().Add(-time.Hour).Truncate(time.Second)
	post := testPost(t, db, alice.ID, "original", createdAt)

	// Even a doctored author field does not survive the update, only text
	// and group are ever written.
	post.Text = "edited"
	post.AuthorID = bob.ID
	require.NoError(t, ps.Update(post))

	found, err := ps.ByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", found.Text)
	assert.Equal(t, alice.ID, found.AuthorID)
	assert.True(t, found.CreatedAt.Equal(createdAt))
}

func TestPostDeleteCascadesComments(t *testing.T) {
	db := testDB(t)
	ps := NewPostService(db)
	cs := NewCommentService(db)
	author := testUser(t, db, "writer")

	post := testPost(t, db, author.ID, "short lived", time.Now())
	require.NoError(t, cs.Create(&domain.Comment{PostID: post.ID, AuthorID: author.ID, Text: "nice"}))

	require.NoError(t, ps.Delete(post))

	var count int64
	db.Model(&domain.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
}

func TestGroupDeleteClearsPostGroup(t *testing.T) {
	db := testDB(t)
	ps := NewPostService(db)
	gs := NewGroupService(db)
	author := testUser(t, db, "writer")

	group := &domain.Group{Title: "Ephemeral"}
	require.NoError(t, gs.Create(group))
	post := &domain.Post{AuthorID: author.ID, Text: "survives", GroupID: &group.ID}
	require.NoError(t, ps.Create(post))

	require.NoError(t, gs.Delete(group))

	// The post outlives its group, it just loses the reference.
	found, err := ps.ByID(post.ID)
	require.NoError(t, err)
	assert.Nil(t, found.GroupID)
	assert.Equal(t, "survives", found.Text)
}

func TestUserDeleteCascadesPosts(t *testing.T) {
	db := testDB(t)
	ps := NewPostService(db)
	us := NewUserService(db, "test-hmac-key", "test-pepper")
	author := testUser(t, db, "leaver")

	post := testPost(t, db, author.ID, "going away", time.Now())

	require.NoError(t, us.Delete(author))

	_, err := ps.ByID(post.ID)
	require.Error(t, err)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}

func TestPostByIDCommentsNewestFirst(t *testing.T) {
	db := testDB(t)
	ps := NewPostService(db)
	cs := NewCommentService(db)
	author := testUser(t, db, "writer")

	post := testPost(t, db, author.ID, "discussed", time.Now().Add(-time.Hour))

	base := time.Now().Add(-30 * time.Minute)
	for i := 0; i < 3; i++ {
		comment := &domain.Comment{
			PostID:    post.ID,
			AuthorID:  author.ID,
			Text:      fmt.Sprintf("comment %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, cs.Create(comment))
	}

	found, err := ps.ByID(post.ID)
	require.NoError(t, err)
	require.Len(t, found.Comments, 3)
	assert.Equal(t, "comment 2", found.Comments[0].Text)
	assert.Equal(t, "comment 0", found.Comments[2].Text)
	assert.Equal(t, "writer", found.Comments[0].Author.Username)
}

func TestPostByIDNotFound(t *testing.T) {
	ps := NewPostService(testDB(t))

	_, err := ps.ByID(12345)
	require.Error(t, err)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}
