package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StorageService stores customer and translated files. Keys are opaque to callers.
type StorageService interface {
	// Upload stores r under folder and returns the object key.
	Upload(ctx context.Context, r io.Reader, folder, filename string) (string, error)
	Delete(ctx context.Context, key string) error
	// SignedURL returns a short-lived download URL for key.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

const (
	BackendCloudinary = "cloudinary"
	BackendGCS        = "gcs"
)

// DocumentsFolder is where a customer's originals live.
func DocumentsFolder(userID string) string {
	return "documents/" + userID
}

// TranslationsFolder is where delivered translations live.
func TranslationsFolder(userID string) string {
	return "translations/" + userID
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// objectName builds a collision-free object name that keeps the original filename readable.
func objectName(folder, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "_")
	if base == "" || base == "." {
		base = "file"
	}
	return fmt.Sprintf("%s/%s-%s", strings.Trim(folder, "/"), uuid.New().String(), base)
}
