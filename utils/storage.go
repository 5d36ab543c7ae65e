package utils

import (
	"context"
	"fmt"
	"strings"

	"tradocs/config"
	"tradocs/services/storage"

	"github.com/cloudinary/cloudinary-go/v2"
)

// Cloudinary builds the Cloudinary-backed StorageService from configuration.
func Cloudinary() (storage.StorageService, error) {
	cloudName := config.AppConfig.CloudinaryCloudName
	apiKey := config.AppConfig.CloudinaryAPIKey
	apiSecret := config.AppConfig.CloudinaryAPISecret
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not set in configuration")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("utils.Cloudinary: failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return storage.NewCloudinaryStorage(cld, cloudName, apiSecret, GetLogger()), nil
}

// NewStorage returns the backend named by STORAGE_BACKEND. The returned
// closer releases client resources and is never nil.
func NewStorage(ctx context.Context) (storage.StorageService, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(config.AppConfig.StorageBackend)) {
	case "", "cloudinary":
		svc, err := Cloudinary()
		return svc, noop, err
	case "gcs":
		if config.AppConfig.GCSBucket == "" {
			return nil, noop, fmt.Errorf("GCS_BUCKET is required for the gcs storage backend")
		}
		svc, err := storage.NewGCSStorage(ctx, config.AppConfig.GCSBucket, config.AppConfig.GoogleCredentialsFile)
		if err != nil {
			return nil, noop, err
		}
		return svc, svc.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", config.AppConfig.StorageBackend)
	}
}
