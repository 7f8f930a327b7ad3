package crud

import (
	"math"
	"strings"

	"gorm.io/gorm"

	"inkwell/domain"
	"inkwell/errs"
)

// PostService manages Posts.
// It implements the domain.PostService interface.
type PostService struct {
	postValidator
}

// postValidator runs validations on incoming Post data.
// On success, it passes the data on to postGorm.
// Otherwise, it returns the error of the validation that has failed.
type postValidator struct {
	postGorm
}

// postGorm runs CRUD operations on the database using incoming Post data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type postGorm struct {
	db *gorm.DB
}

// NewPostService returns an instance of PostService.
func NewPostService(db *gorm.DB) *PostService {
	return &PostService{
		postValidator{
			postGorm{
				db: db,
			},
		},
	}
}

// Ensure the PostService struct properly implements the domain.PostService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.PostService = &PostService{}

// Create runs validations needed for creating new Post database records.
func (pv *postValidator) Create(post *domain.Post) error {
	err := runPostValFns(post,
		pv.authorIdValid,
		pv.textRequired,
		pv.groupExists)
	if err != nil {
		return err
	}
	return pv.postGorm.Create(post)
}

// Update runs validations needed for updating a Post record in the database.
func (pv *postValidator) Update(post *domain.Post) error {
	err := runPostValFns(post,
		pv.idValid,
		pv.authorIdValid,
		pv.textRequired,
		pv.groupExists)
	if err != nil {
		return err
	}
	return pv.postGorm.Update(post)
}

// Delete runs validations needed for deleting existing Post database records.
func (pv *postValidator) Delete(post *domain.Post) error {
	err := runPostValFns(post, pv.idValid)
	if err != nil {
		return err
	}
	return pv.postGorm.Delete(post)
}

// runPostValFns runs any number of functions of type postValFn on the passed in Post object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runPostValFns(post *domain.Post, fns ...postValFn) error {
	for _, fn := range fns {
		if err := fn(post); err != nil {
			return err
		}
	}
	return nil
}

// A postValFn is any function that takes in a pointer to a domain.Post object and returns an error.
type postValFn = func(post *domain.Post) error

// idValid makes sure that the passed in ID of a Post is greater than 0.
func (pv *postValidator) idValid(post *domain.Post) error {
	if post.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Post ID is invalid.")
	}
	return nil
}

// authorIdValid ensures that the authorId is not empty.
func (pv *postValidator) authorIdValid(post *domain.Post) error {
	if post.AuthorID <= 0 {
		return errs.Errorf(errs.EINVALID, "Post author is required.")
	}
	return nil
}

// textRequired makes sure that the post's text is not empty or all whitespace.
func (pv *postValidator) textRequired(post *domain.Post) error {
	if strings.TrimSpace(post.Text) == "" {
		return errs.Errorf(errs.EINVALID, "Post text must not be empty.")
	}
	return nil
}

// groupExists makes sure that the group the post is filed under actually exists.
// This check only runs if the incoming Post object carries a group reference.
func (pv *postValidator) groupExists(post *domain.Post) error {
	if post.GroupID == nil {
		return nil
	}
	err := pv.db.First(&domain.Group{}, "id = ?", *post.GroupID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errs.Errorf(errs.ENOTFOUND, "The group does not exist.")
		}
		return err
	}
	return nil
}

// pageOffset converts a 1-based page number into a query offset.
// Page numbers below 1 fall back to the first page. Huge page numbers
// saturate instead of overflowing: a negative offset would make the store
// serve the first page again rather than the empty page past the end.
func pageOffset(page int) int {
	const maxPage = math.MaxInt / domain.PostsPerPage
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	return (page - 1) * domain.PostsPerPage
}

// ByID retrieves a single Post by ID, along with its author, group and
// comments (each with their author, newest comment first).
func (pg *postGorm) ByID(id int) (*domain.Post, error) {
	var post domain.Post
	err := pg.db.
		Preload("Author").
		Preload("Group").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at DESC, comments.id DESC")
		}).
		Preload("Comments.Author").
		First(&post, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The post does not exist.")
		}
		return nil, err
	}
	return &post, nil
}

// All retrieves one page of the global timeline, newest post first.
func (pg *postGorm) All(page int) ([]domain.Post, error) {
	var posts []domain.Post
	err := pg.db.
		Preload("Author").
		Preload("Group").
		Order("created_at DESC, id DESC").
		Offset(pageOffset(page)).
		Limit(domain.PostsPerPage).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ByGroup retrieves one page of the posts filed under the given group,
// newest first. Posts without a group, or with another group, never appear.
func (pg *postGorm) ByGroup(groupID, page int) ([]domain.Post, error) {
	var posts []domain.Post
	err := pg.db.
		Where("group_id = ?", groupID).
		Preload("Author").
		Preload("Group").
		Order("created_at DESC, id DESC").
		Offset(pageOffset(page)).
		Limit(domain.PostsPerPage).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ByAuthor retrieves one page of the posts written by the given user, newest first.
func (pg *postGorm) ByAuthor(authorID, page int) ([]domain.Post, error) {
	var posts []domain.Post
	err := pg.db.
		Where("author_id = ?", authorID).
		Preload("Author").
		Preload("Group").
		Order("created_at DESC, id DESC").
		Offset(pageOffset(page)).
		Limit(domain.PostsPerPage).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ByFollowed retrieves one page of the posts written by any author the given
// user follows, newest first.
func (pg *postGorm) ByFollowed(userID, page int) ([]domain.Post, error) {
	var posts []domain.Post
	err := pg.db.
		Joins("JOIN follows ON follows.author_id = posts.author_id").
		Where("follows.user_id = ?", userID).
		Preload("Author").
		Preload("Group").
		Order("posts.created_at DESC, posts.id DESC").
		Offset(pageOffset(page)).
		Limit(domain.PostsPerPage).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Create stores the data from the Post object in a new database record and
// eager-loads the author relation for immediate display.
func (pg *postGorm) Create(post *domain.Post) error {
	if err := pg.db.Create(post).Error; err != nil {
		return err
	}
	return pg.db.Preload("Author").Preload("Group").First(post, "id = ?", post.ID).Error
}

// Update saves changes to text and group of an existing post record. The
// creation timestamp and the author are deliberately not written, so edits
// can never reassign a post or move it in the timelines.
func (pg *postGorm) Update(post *domain.Post) error {
	return pg.db.Model(post).
		Select("text", "group_id", "updated_at").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
		}).Error
}

// Delete permanently deletes the post record. Its comments go with it.
func (pg *postGorm) Delete(post *domain.Post) error {
	return pg.db.Delete(post).Error
}
