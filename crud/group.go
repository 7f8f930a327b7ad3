package crud

import (
	"regexp"

	"gorm.io/gorm"

	"inkwell/domain"
	"inkwell/errs"
)

// GroupService manages Groups.
// It implements the domain.GroupService interface.
type GroupService struct {
	groupValidator
}

// groupValidator runs validations on incoming Group data.
// On success, it passes the data on to groupGorm.
// Otherwise, it returns the error of the validation that has failed.
type groupValidator struct {
	slugRegex *regexp.Regexp
	groupGorm
}

// groupGorm runs CRUD operations on the database using incoming Group data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type groupGorm struct {
	db *gorm.DB
}

// NewGroupService returns an instance of GroupService.
func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{
		groupValidator{
			slugRegex: regexp.MustCompile(`^[-a-zA-Z0-9_]+$`),
			groupGorm: groupGorm{
				db: db,
			},
		},
	}
}

// Ensure the GroupService struct properly implements the domain.GroupService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.GroupService = &GroupService{}

// Create runs validations needed for creating new Group database records.
func (gv *groupValidator) Create(group *domain.Group) error {
	err := runGroupValFns(group,
		gv.titleRequired,
		gv.slugSetIfUnset,
		gv.slugRequired,
		gv.slugFormat,
		gv.slugMaxLength,
		gv.slugIsAvail)
	if err != nil {
		return err
	}
	return gv.groupGorm.Create(group)
}

// Update runs validations needed for updating a Group record in the database.
// An already-set slug is never re-derived, no matter how the title changed.
func (gv *groupValidator) Update(group *domain.Group) error {
	err := runGroupValFns(group,
		gv.titleRequired,
		gv.slugSetIfUnset,
		gv.slugRequired,
		gv.slugFormat,
		gv.slugMaxLength,
		gv.slugIsAvail)
	if err != nil {
		return err
	}
	return gv.groupGorm.Update(group)
}

// Delete runs validations needed for deleting existing Group database records.
func (gv *groupValidator) Delete(group *domain.Group) error {
	err := runGroupValFns(group, gv.idValid)
	if err != nil {
		return err
	}
	return gv.groupGorm.Delete(group)
}

// runGroupValFns runs any number of functions of type groupValFn on the passed in Group object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runGroupValFns(group *domain.Group, fns ...groupValFn) error {
	for _, fn := range fns {
		if err := fn(group); err != nil {
			return err
		}
	}
	return nil
}

// A groupValFn is any function that takes in a pointer to a domain.Group object and returns an error.
type groupValFn = func(group *domain.Group) error

// idValid makes sure that the passed in ID of a Group to be deleted is greater than 0.
func (gv *groupValidator) idValid(group *domain.Group) error {
	if group.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Group ID is invalid.")
	}
	return nil
}

// titleRequired makes sure that the group's title is not empty.
func (gv *groupValidator) titleRequired(group *domain.Group) error {
	if group.Title == "" {
		return errs.Errorf(errs.EINVALID, "Group title must not be empty.")
	}
	return nil
}

// slugSetIfUnset derives the group's slug from its title if none is set.
// A slug that is already present is left alone, so that saved groups keep
// their address forever.
func (gv *groupValidator) slugSetIfUnset(group *domain.Group) error {
	if group.Slug != "" {
		return nil
	}
	group.Slug = slugify(group.Title)
	return nil
}

// slugRequired makes sure that slug derivation produced a usable token.
func (gv *groupValidator) slugRequired(group *domain.Group) error {
	if group.Slug == "" {
		return errs.Errorf(errs.EINVALID, "Group address could not be derived from the title, please provide one.")
	}
	return nil
}

// slugFormat makes sure that the slug only contains letters, digits,
// hyphens and underscores. Derived slugs always pass; the check guards
// explicitly supplied ones, which also keeps the length truncation below
// from ever cutting through a multi-byte character.
func (gv *groupValidator) slugFormat(group *domain.Group) error {
	if !gv.slugRegex.MatchString(group.Slug) {
		return errs.Errorf(errs.EINVALID, "The group address may only contain letters, digits, hyphens and underscores.")
	}
	return nil
}

// slugMaxLength truncates an explicitly supplied slug that is too long.
// Derived slugs are already within bounds.
func (gv *groupValidator) slugMaxLength(group *domain.Group) error {
	if len(group.Slug) > domain.SlugMaxLength {
		group.Slug = group.Slug[:domain.SlugMaxLength]
	}
	return nil
}

// slugIsAvail makes sure that the group's slug is not taken by another group.
func (gv *groupValidator) slugIsAvail(group *domain.Group) error {
	var existing domain.Group
	err := gv.db.First(&existing, "slug = ?", group.Slug).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != group.ID {
		return errs.Errorf(errs.EINVALID, "The group address %q is already taken.", group.Slug)
	}
	return nil
}

// ByID retrieves a single Group by ID.
func (gg *groupGorm) ByID(id int) (*domain.Group, error) {
	var group domain.Group
	err := gg.db.First(&group, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The group does not exist.")
		}
		return nil, err
	}
	return &group, nil
}

// BySlug retrieves a single Group by its unique slug.
func (gg *groupGorm) BySlug(slug string) (*domain.Group, error) {
	var group domain.Group
	err := gg.db.First(&group, "slug = ?", slug).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The group does not exist.")
		}
		return nil, err
	}
	return &group, nil
}

// All retrieves every group, ordered by title for display in forms.
func (gg *groupGorm) All() ([]domain.Group, error) {
	var groups []domain.Group
	err := gg.db.Order("title asc").Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// Create stores the data from the Group object in a new database record.
func (gg *groupGorm) Create(group *domain.Group) error {
	return gg.db.Create(group).Error
}

// Update saves changes to an existing group record in the database.
func (gg *groupGorm) Update(group *domain.Group) error {
	return gg.db.Save(group).Error
}

// Delete permanently deletes the group record. Posts filed under the group
// survive with their group reference cleared.
func (gg *groupGorm) Delete(group *domain.Group) error {
	return gg.db.Delete(group).Error
}
