package storage

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestObjectNameSanitizesFilename(t *testing.T) {
	name := objectName("documents/u1/", `C:\scans\birth cert (1).pdf`)
	if !strings.HasPrefix(name, "documents/u1/") {
		t.Fatalf("expected folder prefix, got %s", name)
	}
	if !strings.HasSuffix(name, "-birth_cert_1_.pdf") {
		t.Fatalf("unexpected object name %s", name)
	}
	if objectName("f", "../../") == objectName("f", "../../") {
		t.Fatal("object names must be unique")
	}
}

func TestCloudinarySignedURL(t *testing.T) {
	s := &CloudinaryStorage{cloudName: "demo", apiSecret: "secret"}
	url, err := s.SignedURL(context.Background(), "documents/u1/abc-file.pdf", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(url, "https://res.cloudinary.com/demo/raw/authenticated/s--") {
		t.Fatalf("unexpected url %s", url)
	}
	if !strings.HasSuffix(url, "/documents/u1/abc-file.pdf") {
		t.Fatalf("url should end with the key: %s", url)
	}
	if _, err := s.SignedURL(context.Background(), "", time.Hour); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestMemoryStorageLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	key, err := s.Upload(ctx, strings.NewReader("hello"), DocumentsFolder("u1"), "a.pdf")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !s.Has(key) {
		t.Fatal("object should exist after upload")
	}
	if _, err := s.SignedURL(ctx, key, time.Minute); err != nil {
		t.Fatalf("signed url: %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Has(key) {
		t.Fatal("object should be gone")
	}
}
