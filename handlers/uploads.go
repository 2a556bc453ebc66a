package handlers

import (
	"context"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"fastmemo/apperror"
	"fastmemo/imagestore"
)

const MsgNotAnImage = "Not an image! Please upload only images."

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const multipartMemory = 1 << 20

type uploader struct {
	store imagestore.Store
	now   func() time.Time
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func parseMultipart(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apperror.Wrap(apperror.KindValidation, "Invalid input", err)
}

// save stores one uploaded file as "{entity}-{id}-{millis}{ext}" and
// returns the stored name.
func (u uploader) save(ctx context.Context, folder imagestore.Folder, entity, id string, seq int, fh *multipart.FileHeader) (string, error) {
	name, err := imagestore.Filename(entity, id, u.now(), seq, fh.Filename)
	if err != nil {
		return "", apperror.Wrap(apperror.KindValidation, MsgNotAnImage, err)
	}

	f, err := fh.Open()
	if err != nil {
		return "", apperror.Wrap(apperror.KindValidation, "Invalid input", err)
	}
	defer f.Close()

	if err := u.store.Save(ctx, folder, name, f, fh.Header.Get("Content-Type")); err != nil {
		return "", apperror.Internal(err)
	}

	logRequest(ctx, "debug", "Image stored", zap.String("folder", string(folder)), zap.String("name", name))
	return name, nil
}

// discard removes files stored for a request that then failed.
func (u uploader) discard(ctx context.Context, folder imagestore.Folder, names ...string) {
	for _, name := range names {
		if err := u.store.Delete(ctx, folder, name); err != nil {
			logRequest(ctx, "error", "Failed to remove orphaned image", zap.String("name", name), zap.Error(err))
		}
	}
}
