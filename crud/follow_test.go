package crud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/domain"
	"inkwell/errs"
)

func TestFollowIdempotent(t *testing.T) {
	db := testDB(t)
	fs := NewFollowService(db)
	reader := testUser(t, db, "reader")
	writer := testUser(t, db, "writer")

	require.NoError(t, fs.Follow(reader.ID, writer.ID))
	assert.True(t, fs.Following(reader.ID, writer.ID))

	// Following again neither errors nor duplicates the edge.
	require.NoError(t, fs.Follow(reader.ID, writer.ID))

	var count int64
	db.Model(&domain.Follow{}).
		Where("user_id = ? AND author_id = ?", reader.ID, writer.ID).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestFollowSelf(t *testing.T) {
	db := testDB(t)
	fs := NewFollowService(db)
	user := testUser(t, db, "narcissus")

	err := fs.Follow(user.ID, user.ID)
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
	assert.False(t, fs.Following(user.ID, user.ID))
}

func TestFollowUnknownAuthor(t *testing.T) {
	db := testDB(t)
	fs := NewFollowService(db)
	reader := testUser(t, db, "reader")

	err := fs.Follow(reader.ID, 999)
	require.Error(t, err)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}

func TestUnfollow(t *testing.T) {
	db := testDB(t)
	fs := NewFollowService(db)
	reader := testUser(t, db, "reader")
	writer := testUser(t, db, "writer")

	require.NoError(t, fs.Follow(reader.ID, writer.ID))
	require.NoError(t, fs.Unfollow(reader.ID, writer.ID))
	assert.False(t, fs.Following(reader.ID, writer.ID))

	// Unfollowing an absent edge is a no-op.
	require.NoError(t, fs.Unfollow(reader.ID, writer.ID))
}

func TestByFollowedTimeline(t *testing.T) {
	db := testDB(t)
	fs := NewFollowService(db)
	ps := NewPostService(db)
	reader := testUser(t, db, "reader")
	followed := testUser(t, db, "followed")
	stranger := testUser(t, db, "stranger")

	now := time.Now()
	testPost(t, db, followed.ID, "from followed", now.Add(-2*time.Minute))
	testPost(t, db, stranger.ID, "from stranger", now.Add(-time.Minute))
	testPost(t, db, reader.ID, "own post", now)

	require.NoError(t, fs.Follow(reader.ID, followed.ID))

	// Only the followed author's posts appear. The reader's own posts and
	// posts by strangers do not.
	posts, err := ps.ByFollowed(reader.ID, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "from followed", posts[0].Text)
	assert.Equal(t, "followed", posts[0].Author.Username)

	require.NoError(t, fs.Unfollow(reader.ID, followed.ID))
	posts, err = ps.ByFollowed(reader.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestUserDeleteCascadesFollows(t *testing.T) {
	db := testDB(t)
	fs := NewFollowService(db)
	us := NewUserService(db, "test-hmac-key", "test-pepper")
	reader := testUser(t, db, "reader")
	writer := testUser(t, db, "writer")

	require.NoError(t, fs.Follow(reader.ID, writer.ID))
	require.NoError(t, us.Delete(writer))

	var count int64
	db.Model(&domain.Follow{}).Count(&count)
	assert.Zero(t, count)
}
