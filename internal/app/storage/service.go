/*
Package storage checks objects in S3-compatible storage.

Image messages carry an object key in their content. Upload happens out of band; the
chat core only confirms that the referenced object exists before persisting the message.
*/
package storage

import (
	"context"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Enabled reports whether enough settings are present to build a client.
func (c ServiceConfig) Enabled() bool {
	return c.S3BucketName != "" && c.S3Endpoint != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

// Service defines the object lookups used by the chat core.
type Service interface {
	// Exists reports whether an object with the given key is present in the bucket.
	Exists(ctx context.Context, key string) (bool, error)
}

// NewService is the factory function for Service.
// Currently, only S3 compatible implementations are supported.
func NewService(ctx context.Context, cfg ServiceConfig) (Service, error) {
	return newS3Client(ctx, cfg)
}
