package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"places-backend/internal/httperror"
)

// PublicPrefix is the URL path images are served under and the prefix of every
// stored image path.
const PublicPrefix = "uploads/images"

var mimeExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/jpg":  "jpg",
}

// Storage keeps uploaded images in a single local directory.
type Storage struct {
	dir string
	log logrus.FieldLogger
}

func NewStorage(dir string, log logrus.FieldLogger) *Storage {
	return &Storage{dir: dir, log: log}
}

func (s *Storage) Dir() string {
	return s.dir
}

// Save writes file under a generated name and returns its public path,
// e.g. "uploads/images/<uuid>.png".
func (s *Storage) Save(file *multipart.FileHeader) (string, error) {
	mimeType := strings.ToLower(strings.TrimSpace(file.Header.Get("Content-Type")))
	ext, ok := mimeExtensions[mimeType]
	if !ok {
		s.log.Warnf("[UPLOAD] rejected %q with mime type %q", file.Filename, mimeType)
		return "", httperror.New(http.StatusUnprocessableEntity, "Invalid mime type!")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.log.Errorf("[UPLOAD] failed to create directory %s: %v", s.dir, err)
		return "", storeFailed(err)
	}

	filename := uuid.NewString() + "." + ext
	fullPath := filepath.Join(s.dir, filename)

	in, err := file.Open()
	if err != nil {
		s.log.Errorf("[UPLOAD] failed to open upload %s: %v", file.Filename, err)
		return "", storeFailed(err)
	}
	defer in.Close()

	out, err := os.Create(fullPath)
	if err != nil {
		s.log.Errorf("[UPLOAD] failed to create file %s: %v", fullPath, err)
		return "", storeFailed(err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(fullPath)
		s.log.Errorf("[UPLOAD] failed to write file %s: %v", fullPath, err)
		return "", storeFailed(err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(fullPath)
		return "", storeFailed(err)
	}

	s.log.Debugf("[UPLOAD] stored %s as %s", file.Filename, fullPath)
	return path.Join(PublicPrefix, filename), nil
}

// Delete removes a file previously returned by Save. Paths outside the
// upload directory are refused; a file that is already gone is not an error.
func (s *Storage) Delete(publicPath string) error {
	trimmed := strings.TrimSpace(publicPath)
	if trimmed == "" {
		return nil
	}

	cleanRel := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(trimmed, "/")), "/")
	if !strings.HasPrefix(cleanRel, PublicPrefix+"/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", publicPath)
	}
	name := strings.TrimPrefix(cleanRel, PublicPrefix+"/")
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("refusing to delete nested upload path: %s", publicPath)
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

// Discard deletes a stored file and only logs failures.
func (s *Storage) Discard(publicPath string) {
	if err := s.Delete(publicPath); err != nil {
		s.log.Warnf("[UPLOAD] could not delete %s: %v", publicPath, err)
	}
}

func storeFailed(err error) error {
	return httperror.Wrap(err, http.StatusInternalServerError, "Could not store the image.")
}
