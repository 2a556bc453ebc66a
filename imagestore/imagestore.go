// Package imagestore saves uploaded note images and user photos.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Folder groups uploads by the entity that owns them.
type Folder string

const (
	Notes Folder = "notes"
	Users Folder = "users"
)

// Store persists an uploaded file under folder/name. Delete of a missing
// file is not an error.
type Store interface {
	Save(ctx context.Context, folder Folder, name string, r io.Reader, contentType string) error
	Delete(ctx context.Context, folder Folder, name string) error
}

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Filename builds "{Entity}-{id}-{unixMillis}{ext}". seq disambiguates
// several files stored in the same millisecond and is omitted when zero.
func Filename(entity, id string, now time.Time, seq int, original string) (string, error) {
	ext := strings.ToLower(filepath.Ext(original))
	if !allowedExt[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}
	if seq == 0 {
		return fmt.Sprintf("%s-%s-%d%s", entity, id, now.UnixMilli(), ext), nil
	}
	return fmt.Sprintf("%s-%s-%d-%d%s", entity, id, now.UnixMilli(), seq, ext), nil
}

// Disk stores files below a local directory that is also served over HTTP.
type Disk struct {
	dir string
}

func NewDisk(dir string) (*Disk, error) {
	for _, f := range []Folder{Notes, Users} {
		if err := os.MkdirAll(filepath.Join(dir, string(f)), 0o755); err != nil {
			return nil, fmt.Errorf("create image dir: %w", err)
		}
	}
	return &Disk{dir: dir}, nil
}

func (d *Disk) Save(ctx context.Context, folder Folder, name string, r io.Reader, contentType string) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("invalid image name %q", name)
	}

	path := filepath.Join(d.dir, string(folder), name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create image %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write image %s: %w", name, err)
	}
	return f.Close()
}

func (d *Disk) Delete(ctx context.Context, folder Folder, name string) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	err := os.Remove(filepath.Join(d.dir, string(folder), name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image %s: %w", name, err)
	}
	return nil
}

// Handler serves the stored files, mounted under /images/.
func (d *Disk) Handler() http.Handler {
	return http.FileServer(http.Dir(d.dir))
}
