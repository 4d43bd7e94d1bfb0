package storage

import (
	"context"       // Context for object operations
	"io"            // Upload stream
	"path/filepath" // Extension handling
	"strings"       // Extension checks

	"github.com/google/uuid"                       // Unique object keys
	"github.com/minio/minio-go/v7"                 // MinIO client
	"github.com/minio/minio-go/v7/pkg/credentials" // MinIO credentials
)

// allowedExts are the accepted avatar image extensions
var allowedExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}

// AvatarStore keeps avatar images in a MinIO bucket. Object keys are opaque
// and collision-free; the key stored on the user record is the only
// reference.
type AvatarStore struct {
	client *minio.Client // MinIO connection
	bucket string        // Target bucket
}

// NewAvatarStore connects to MinIO
func NewAvatarStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*AvatarStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""), // Static credentials
		Secure: useSSL,                                            // TLS flag
	})
	if err != nil {
		return nil, err
	}
	return &AvatarStore{client: client, bucket: bucket}, nil
}

// AllowedFile reports whether the filename has an accepted image extension
func AllowedFile(filename string) bool {
	return allowedExts[strings.ToLower(filepath.Ext(filename))]
}

// Put uploads an avatar and returns its generated object key
func (s *AvatarStore) Put(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	// Unique key so concurrent uploads never collide
	key := "avatar/" + uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType, // Preserve the uploaded content type
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Remove deletes an avatar object. Removing a missing key is not an error.
func (s *AvatarStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// URL returns the public URL of an avatar object
func (s *AvatarStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.client.EndpointURL().String() + "/" + s.bucket + "/" + key
}
