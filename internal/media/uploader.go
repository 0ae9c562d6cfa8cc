// Package media moves staged upload files into durable remote storage.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"clipstream/internal/storage"
)

// Uploader commits locally staged files to the remote storage collaborator.
//
// Commit deletes the local stage only after the remote upload succeeded; on
// failure the file is retained on disk so the upload can be retried out of
// band.
type Uploader struct {
	store     storage.Service
	bucket    string
	keyPrefix string
	logger    *logrus.Logger
}

func NewUploader(store storage.Service, bucket, keyPrefix string, logger *logrus.Logger) *Uploader {
	return &Uploader{
		store:     store,
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
		logger:    logger,
	}
}

// Commit uploads the staged file and returns its remote URL. An empty
// localPath is a no-op returning an empty URL (optional file not provided).
// On upload failure the staged file stays on disk and the error is returned
// so the caller decides whether the surrounding operation must fail.
func (u *Uploader) Commit(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", nil
	}

	key := u.objectKey(localPath)
	url, err := u.store.UploadFile(ctx, localPath, storage.UploadOptions{
		Bucket: u.bucket,
		Key:    key,
	})
	if err != nil {
		u.logger.WithError(err).Warnf("upload failed, staged file retained at %s", localPath)
		return "", fmt.Errorf("commit %s: %w", localPath, err)
	}

	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		u.logger.WithError(err).Warnf("remove staged file %s", localPath)
	}
	return url, nil
}

func (u *Uploader) objectKey(localPath string) string {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(localPath))
	if u.keyPrefix == "" {
		return name
	}
	return u.keyPrefix + "/" + name
}
