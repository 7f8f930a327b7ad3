package crud

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"inkwell/domain"
	"inkwell/errs"
)

// ImageService manages post image attachments.
// It implements the domain.ImageService interface.
type ImageService struct {
	imageValidator
}

// imageValidator runs validations on incoming Image data.
// On success, it passes the data on to imageCrud.
// Otherwise, it returns the error of the validation that has failed.
type imageValidator struct {
	imageCrud
}

// imageCrud runs CRUD operations on the filesystem using incoming Image data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type imageCrud struct{}

// NewImageService returns an instance of ImageService.
func NewImageService() *ImageService {
	return &ImageService{
		imageValidator{
			imageCrud{},
		},
	}
}

// Ensure the ImageService struct properly implements the domain.ImageService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.ImageService = &ImageService{}

// Create runs validations needed for storing uploaded images in the filesystem.
func (iv *imageValidator) Create(img *domain.Image) error {
	err := runImageValFns(img,
		iv.extensionValid,
		iv.contentTypeValid,
		iv.contentTypeExtensionMatch,
		iv.belowMaxSize,
		iv.fileNameUnique)
	if err != nil {
		return err
	}
	return iv.imageCrud.Create(img)
}

// runImageValFns runs any number of functions of type imageValFn on the passed in Image object.
func runImageValFns(img *domain.Image, fns ...imageValFn) error {
	for _, fn := range fns {
		if err := fn(img); err != nil {
			return err
		}
	}
	return nil
}

// An imageValFn is any function that takes in a pointer to a domain.Image object and returns an error.
type imageValFn = func(img *domain.Image) error

// extensionValid makes sure that the image to be uploaded has the extension
// .jpeg, .jpg, .png or .gif. A .jpg extension is renamed to .jpeg for consistency.
func (iv *imageValidator) extensionValid(img *domain.Image) error {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" && ext != ".gif" {
		return errs.Errorf(errs.EINVALID, "Image %s invalid extension, must be .jpeg, .png or .gif.", img.Filename)
	}
	if ext == ".jpg" {
		ext = ".jpeg"
	}
	img.Extension = ext
	return nil
}

// contentTypeValid makes sure that the image to be uploaded is a valid jpeg, png or gif file.
func (iv *imageValidator) contentTypeValid(img *domain.Image) error {
	buffer := make([]byte, 512)
	n, err := img.File.Read(buffer)
	if err != nil && err != io.EOF {
		return err
	}
	if err = resetFilePointer(img); err != nil {
		return err
	}
	contentType := http.DetectContentType(buffer[:n])
	if contentType != "image/jpeg" && contentType != "image/png" && contentType != "image/gif" {
		return errs.Errorf(errs.EINVALID, "Image %s invalid content-type, must be image/jpeg, image/png or image/gif.", img.Filename)
	}
	img.ContentType = contentType
	return nil
}

// contentTypeExtensionMatch makes sure that the image's filename extension and content type match.
func (iv *imageValidator) contentTypeExtensionMatch(img *domain.Image) error {
	contentType := strings.TrimPrefix(img.ContentType, "image/")
	ext := strings.TrimPrefix(img.Extension, ".")
	if contentType != ext {
		return errs.Errorf(errs.EINVALID, "Image %s content-type %s does not match extension %s.", img.Filename, img.ContentType, img.Extension)
	}
	return nil
}

// belowMaxSize makes sure that the image to be uploaded does not exceed MaxUploadSize.
func (iv *imageValidator) belowMaxSize(img *domain.Image) error {
	size, err := img.File.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if err = resetFilePointer(img); err != nil {
		return err
	}
	if size > domain.MaxUploadSize {
		return errs.Errorf(errs.EINVALID, "Image %s exceeds upload size limit of %dMB.", img.Filename, domain.MaxUploadSize/1000000)
	}
	return nil
}

// fileNameUnique replaces the image's name with a fresh UUID.
func (iv *imageValidator) fileNameUnique(img *domain.Image) error {
	img.Filename = uuid.NewString() + img.Extension
	return nil
}

// resetFilePointer sets the file pointer back to the beginning of the file,
// so that subsequent reads can properly read from the beginning again.
func resetFilePointer(img *domain.Image) error {
	_, err := img.File.Seek(0, io.SeekStart)
	return err
}

// Create builds the storage path for the image's owner, creates a
// destination file inside it, and copies the upload there.
func (ic *imageCrud) Create(img *domain.Image) error {
	path, err := ic.mkImagePath(img.OwnerType, img.OwnerID)
	if err != nil {
		return err
	}
	dst, err := os.Create(path + img.Filename)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, img.File)
	if err != nil {
		return err
	}
	img.URL = img.Path()
	return nil
}

// ByOwner returns the stored images of the given owner, e.g. a post.
func (ic *imageCrud) ByOwner(ownerType string, ownerID int) ([]domain.Image, error) {
	path := ic.imagePath(ownerType, ownerID)
	imgStrings, err := filepath.Glob(path + "*")
	if err != nil {
		return nil, err
	}
	ret := make([]domain.Image, len(imgStrings))
	for i := range ret {
		imgStrings[i] = strings.Replace(imgStrings[i], path, "", 1)
		ret[i] = domain.Image{
			Filename:  imgStrings[i],
			OwnerType: ownerType,
			OwnerID:   ownerID,
		}
		ret[i].URL = ret[i].Path()
	}
	return ret, nil
}

// Delete removes a specific image from the filesystem.
func (ic *imageCrud) Delete(i *domain.Image) error {
	return os.Remove(i.RelativePath())
}

// DeleteAll removes an entire directory containing images from the filesystem.
func (ic *imageCrud) DeleteAll(ownerType string, ownerID int) error {
	return os.RemoveAll(ic.imagePath(ownerType, ownerID))
}

// mkImagePath creates a filesystem path based on an image's ownerType and
// ownerID, resulting in directories like images/post/2/.
func (ic *imageCrud) mkImagePath(ownerType string, ownerID int) (string, error) {
	imagePath := ic.imagePath(ownerType, ownerID)
	err := os.MkdirAll(imagePath, 0755)
	if err != nil {
		return "", err
	}
	return imagePath, nil
}

// imagePath builds the name of a path based on the name of the base
// directory for images, an image's ownerType and its ownerID.
func (ic *imageCrud) imagePath(ownerType string, ownerID int) string {
	return fmt.Sprintf("%v/%v/%v/", domain.ImagesBaseDir, ownerType, ownerID)
}
