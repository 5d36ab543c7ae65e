package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

const (
	rawResource   = "raw"
	authenticated = api.DeliveryType("authenticated")
)

// CloudinaryStorage keeps files as authenticated raw assets.
type CloudinaryStorage struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	apiSecret string
	logger    *zap.Logger
}

func NewCloudinaryStorage(cld *cloudinary.Cloudinary, cloudName, apiSecret string, logger *zap.Logger) StorageService {
	logger.Debug("Initializing Cloudinary storage", zap.String("cloudName", cloudName))
	return &CloudinaryStorage{cld: cld, cloudName: cloudName, apiSecret: apiSecret, logger: logger}
}

func (s *CloudinaryStorage) Upload(ctx context.Context, r io.Reader, folder, filename string) (string, error) {
	publicID := objectName(folder, filename)
	params := uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: rawResource,
		Type:         authenticated,
	}
	result, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return "", fmt.Errorf("cloudinary: failed to upload file: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: upload rejected: %s", result.Error.Message)
	}
	if result.PublicID == "" {
		return "", fmt.Errorf("cloudinary: no public ID returned")
	}
	return result.PublicID, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, key string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     key,
		ResourceType: rawResource,
		Type:         string(authenticated),
	})
	if err != nil {
		return fmt.Errorf("cloudinary: failed to delete %s: %w", key, err)
	}
	return nil
}

// SignedURL signs "expires_at" and "public_id" with the API secret using SHA-1.
func (s *CloudinaryStorage) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("cloudinary: empty key")
	}
	expiresAt := time.Now().Add(ttl).Unix()
	signature := computeSHA1(fmt.Sprintf("expires_at=%d&public_id=%s%s", expiresAt, key, s.apiSecret))
	return fmt.Sprintf("https://res.cloudinary.com/%s/%s/%s/s--%s--/expires_%d/%s",
		s.cloudName, rawResource, authenticated, signature, expiresAt, strings.TrimPrefix(key, "/")), nil
}

func computeSHA1(input string) string {
	h := sha1.New()
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}
