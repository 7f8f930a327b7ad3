package crud

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inkwell/domain"
)

// testDB opens a throwaway in-memory database with its own schema per test.
// Foreign key enforcement is switched on so that cascade behavior can be
// exercised the same way it plays out against postgres.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.OAuth{},
		&domain.Group{},
		&domain.Post{},
		&domain.Comment{},
		&domain.Follow{},
	))
	return db
}

// testUser creates a user through the full validation chain.
func testUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	us := NewUserService(db, "test-hmac-key", "test-pepper")
	user := &domain.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}
	require.NoError(t, us.Create(user))
	return user
}

// testPost creates a post for the given author with a fixed creation time,
// so that listing tests control the timeline order.
func testPost(t *testing.T, db *gorm.DB, authorID int, text string, createdAt time.Time) *domain.Post {
	t.Helper()
	ps := NewPostService(db)
	post := &domain.Post{
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: createdAt,
	}
	require.NoError(t, ps.Create(post))
	return post
}
