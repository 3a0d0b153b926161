// Package archive stores documents outside of the database. There are two
// drivers: a local file system and AWS S3.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned by Get for unknown keys
var ErrNotFound = errors.New("archive: key not found")

// Driver defines the interface for archive storage. Keys are slash separated
// paths such as "facturas/7/12.json".
type Driver interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// List returns all keys starting with prefix in lexical order
	List(ctx context.Context, prefix string) ([]string, error)
}

// DriverType represents the different type of archive drivers
type DriverType string

// DriverTypeLocal is the local filesystem implementation
const DriverTypeLocal DriverType = "Local"

// DriverTypeAWSS3 is the AWS S3 implementation
const DriverTypeAWSS3 DriverType = "AWSS3"

// None is used when there is no archive
const None DriverType = ""

// Configuration contains the configuration for the archive
type Configuration struct {
	DriverType         DriverType
	LocalConfiguration *LocalConfiguration
	S3Configuration    *S3Configuration
}

// LocalConfiguration contains the configuration for the local filesystem driver
type LocalConfiguration struct {
	BasePath string
}

// S3Configuration contains the configuration for the AWS S3 driver
type S3Configuration struct {
	AWSRegion     string
	AWSBucketName string
	AccessID      string
	AccessKey     string
	// KeyPrefix is prepended to all keys
	KeyPrefix string
}

// New returns the driver selected by config, or nil for None
func New(ctx context.Context, config Configuration) (Driver, error) {
	switch config.DriverType {
	case None:
		return nil, nil
	case DriverTypeLocal:
		if config.LocalConfiguration == nil {
			return nil, fmt.Errorf("archive driver %s requires a local configuration", config.DriverType)
		}
		return NewLocalFilesystem(config.LocalConfiguration.BasePath)
	case DriverTypeAWSS3:
		if config.S3Configuration == nil {
			return nil, fmt.Errorf("archive driver %s requires an S3 configuration", config.DriverType)
		}
		return NewS3(ctx, *config.S3Configuration)
	}
	return nil, fmt.Errorf("unknown archive driver '%s'", config.DriverType)
}

// ValidateKey rejects empty and absolute keys and keys containing ".."
func ValidateKey(key string) error {
	switch {
	case len(key) == 0:
		return fmt.Errorf("archive: empty key")
	case strings.Contains(key, ".."):
		return fmt.Errorf("archive: '..' is not allowed in key '%s'", key)
	case path.IsAbs(key) || strings.HasPrefix(key, "\\"):
		return fmt.Errorf("archive: key '%s' must be relative", key)
	}
	return nil
}
