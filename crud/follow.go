package crud

import (
	"gorm.io/gorm"

	"inkwell/domain"
	"inkwell/errs"
)

// FollowService manages Follow edges.
// It implements the domain.FollowService interface.
type FollowService struct {
	followValidator
}

// followValidator runs validations on incoming Follow data.
// On success, it passes the data on to followGorm.
// Otherwise, it returns the error of the validation that has failed.
type followValidator struct {
	followGorm
}

// followGorm runs CRUD operations on the database using incoming Follow data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type followGorm struct {
	db *gorm.DB
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		followValidator{
			followGorm{
				db: db,
			},
		},
	}
}

// Ensure the FollowService struct properly implements the domain.FollowService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.FollowService = &FollowService{}

// Follow creates the edge (userID, authorID). It is idempotent: if the edge
// already exists it simply returns nil, so repeated follow requests never
// surface an error or create duplicates.
func (fv *followValidator) Follow(userID, authorID int) error {
	follow := domain.Follow{UserID: userID, AuthorID: authorID}
	err := runFollowValFns(&follow,
		fv.userIdValid,
		fv.authorIsNotUser,
		fv.authorExists)
	if err != nil {
		return err
	}
	if fv.followGorm.exists(userID, authorID) {
		return nil
	}
	return fv.followGorm.Create(&follow)
}

// Unfollow removes the edge (userID, authorID) if it exists. Removing a
// non-existent edge is a no-op, not an error.
func (fv *followValidator) Unfollow(userID, authorID int) error {
	follow := domain.Follow{UserID: userID, AuthorID: authorID}
	err := runFollowValFns(&follow, fv.userIdValid)
	if err != nil {
		return err
	}
	return fv.followGorm.Delete(&follow)
}

// runFollowValFns runs any number of functions of type followValFn on the passed in Follow object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runFollowValFns(follow *domain.Follow, fns ...followValFn) error {
	for _, fn := range fns {
		if err := fn(follow); err != nil {
			return err
		}
	}
	return nil
}

// A followValFn is any function that takes in a pointer to a domain.Follow object and returns an error.
type followValFn = func(follow *domain.Follow) error

// userIdValid ensures that the follower's userId is not empty.
func (fv *followValidator) userIdValid(follow *domain.Follow) error {
	if follow.UserID <= 0 {
		return errs.Errorf(errs.EINVALID, "Follower is required.")
	}
	return nil
}

// authorIsNotUser makes sure that users do not follow themselves. Allowing
// it would also put a user's own posts into their follow timeline.
func (fv *followValidator) authorIsNotUser(follow *domain.Follow) error {
	if follow.UserID == follow.AuthorID {
		return errs.Errorf(errs.EINVALID, "You cannot follow yourself.")
	}
	return nil
}

// authorExists makes sure that the user to be followed actually exists.
func (fv *followValidator) authorExists(follow *domain.Follow) error {
	err := fv.db.First(&domain.User{}, "id = ?", follow.AuthorID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errs.Errorf(errs.ENOTFOUND, "The user to be followed does not exist.")
		}
		return err
	}
	return nil
}

// Following reports whether the edge (userID, authorID) exists.
func (fg *followGorm) Following(userID, authorID int) bool {
	return fg.exists(userID, authorID)
}

// exists looks the edge up in the database.
func (fg *followGorm) exists(userID, authorID int) bool {
	var count int64
	fg.db.Model(&domain.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count)
	return count > 0
}

// Create stores the edge in a new database record.
func (fg *followGorm) Create(follow *domain.Follow) error {
	return fg.db.Create(follow).Error
}

// Delete removes the database record matching the edge, if any.
func (fg *followGorm) Delete(follow *domain.Follow) error {
	return fg.db.
		Where("user_id = ? AND author_id = ?", follow.UserID, follow.AuthorID).
		Delete(&domain.Follow{}).Error
}
