package storage

import (
	"errors"
	"fmt"
)

const (
	ProviderLocal = "local"
	ProviderS3    = "s3"

	DefaultBasePath = "./vault"
	DefaultRegion   = "us-east-1"
)

// Config selects and configures the document store. The S3 fields are
// ignored by the local provider.
type Config struct {
	Provider string `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=local s3"`
	BasePath string `yaml:"base_path" mapstructure:"base_path"`

	Bucket string `yaml:"bucket" mapstructure:"bucket"`
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
	Region string `yaml:"region" mapstructure:"region"`
	// Endpoint points at an S3-compatible server such as MinIO and implies
	// path-style addressing.
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey      string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey      string `yaml:"secret_key" mapstructure:"secret_key"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
}

func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			errs = append(errs, errors.New("base_path is required"))
		}
	case ProviderS3:
		if c.Bucket == "" {
			errs = append(errs, errors.New("bucket is required"))
		}
		if c.Region == "" {
			errs = append(errs, errors.New("region is required"))
		}
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	if len(errs) > 0 {
		return fmt.Errorf("storage: %s provider: %w", c.Provider, errors.Join(errs...))
	}
	return nil
}

// Describe is a one-line summary for startup output.
func (c Config) Describe() string {
	if c.Provider == ProviderS3 {
		return "s3://" + c.Bucket + "/" + c.Prefix
	}
	return c.BasePath
}
