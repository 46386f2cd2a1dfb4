// Package s3 stores documents in an Amazon S3 or S3-compatible bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(cfg storage.Config, _ *logger.Logger) (storage.Storage, error) {
		return NewStorage(context.Background(), cfg)
	})
}

// objectAPI is the part of the S3 client Storage needs.
type objectAPI interface {
	HeadObject(ctx context.Context, in *awss3.HeadObjectInput, opts ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *awss3.PutObjectInput, opts ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

type Storage struct {
	api    objectAPI
	bucket string
	prefix string
}

var _ storage.Storage = (*Storage)(nil)

// NewStorage resolves credentials the SDK way unless AccessKey and
// SecretKey are both set.
func NewStorage(ctx context.Context, cfg storage.Config) (*Storage, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		static := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(static))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3 storage: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle || cfg.Endpoint != ""
	})
	return newStorage(client, cfg.Bucket, cfg.Prefix), nil
}

func newStorage(api objectAPI, bucket, prefix string) *Storage {
	return &Storage{api: api, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// key maps a document path to an object key below the prefix.
func (s *Storage) key(p string) string {
	return strings.TrimPrefix(path.Join("/", s.prefix, path.Clean("/"+p)), "/")
}

func (s *Storage) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.api.HeadObject(ctx, &awss3.HeadObjectInput{Bucket: &s.bucket, Key: aws.String(s.key(p))})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("s3 storage: head %s: %w", p, err)
}

func (s *Storage) Upload(ctx context.Context, p string, r io.Reader) error {
	in := &awss3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         aws.String(s.key(p)),
		Body:        r,
		IfNoneMatch: aws.String("*"),
	}
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		in.ContentType = aws.String(ct)
	} else if path.Ext(p) == ".md" {
		in.ContentType = aws.String("text/markdown; charset=utf-8")
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("s3 storage: %s: %w", p, storage.ErrExists)
		}
		return fmt.Errorf("s3 storage: put %s: %w", p, err)
	}
	return nil
}

// isPreconditionFailed matches the error S3 returns when IfNoneMatch finds
// an object at the key.
func isPreconditionFailed(err error) bool {
	var apiErr interface{ ErrorCode() string }
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed"
}
