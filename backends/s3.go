package backends

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func init() {
	Register("s3", func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		return NewS3Backend(cfg, log)
	})
}

// S3Options configures the S3 backend. Without credentials the backend
// still works against public buckets; writes will then fail unless the
// bucket is publicly writable.
type S3Options struct {
	Bucket          string `mapstructure:"bucket" validate:"required"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
}

// S3Backend stores content as objects in Amazon S3 or a compatible
// service (MinIO, Ceph RGW, ...).
type S3Backend struct {
	client *s3.S3
	bucket string
	prefix string
	log    *slog.Logger
}

// NewS3Backend creates an S3 backend from the configuration map.
func NewS3Backend(cfg interfaces.Config, log *slog.Logger) (*S3Backend, error) {
	var opts S3Options
	if err := decodeConfig(cfg, &opts); err != nil {
		return nil, err
	}

	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg := aws.Config{
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(opts.ForcePathStyle),
	}
	if opts.Endpoint != "" {
		awsCfg.Endpoint = aws.String(opts.Endpoint)
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(opts.AccessKeyID, opts.SecretAccessKey, "")
	} else {
		log.Warn("No S3 credentials provided - write operations may fail unless bucket is public writable")
	}

	sess, err := session.NewSession(&awsCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create AWS session: %v", interfaces.ErrInvalidConfig, err)
	}

	return &S3Backend{
		client: s3.New(sess),
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
		log:    log,
	}, nil
}

// Read downloads the object at path.
func (b *S3Backend) Read(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	key := b.objectKey(path)

	result, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapS3Error(err, "get object")
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	b.log.Debug("Read content from S3",
		slog.String("bucket", b.bucket),
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Write uploads data to the object at path, replacing any previous
// content.
func (b *S3Backend) Write(ctx context.Context, path string, data []byte) error {
	key := b.objectKey(path)

	_, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return mapS3Error(err, "put object")
	}

	b.log.Debug("Wrote content to S3",
		slog.String("bucket", b.bucket),
		slog.String("key", key),
		slog.Int("size", len(data)))

	return nil
}

// Delete removes the object at path. S3 deletes are idempotent already;
// a missing key is not an error.
func (b *S3Backend) Delete(ctx context.Context, path string) error {
	_, err := b.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(path)),
	})
	if err != nil {
		mapped := mapS3Error(err, "delete object")
		if mapped == interfaces.ErrNotFound {
			return nil
		}
		return mapped
	}
	return nil
}

// Stat heads the object at path.
func (b *S3Backend) Stat(ctx context.Context, path string) (interfaces.Stat, error) {
	key := b.objectKey(path)

	result, err := b.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return interfaces.Stat{}, mapS3Error(err, "head object")
	}

	stat := interfaces.Stat{
		Path: path,
		Mode: interfaces.EntryModeFile,
		Size: aws.Int64Value(result.ContentLength),
	}
	if result.LastModified != nil {
		stat.LastModified = *result.LastModified
	}
	if result.ContentType != nil {
		stat.ContentType = *result.ContentType
	}
	return stat, nil
}

// List pages through the bucket and returns the paths of all objects with
// the given prefix, relative to the backend prefix.
func (b *S3Backend) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.objectKey(prefix)),
	}

	err := b.client.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				key := aws.StringValue(obj.Key)
				if b.prefix != "" {
					key = strings.TrimPrefix(strings.TrimPrefix(key, b.prefix), "/")
				}
				paths = append(paths, key)
			}
			return true
		})
	if err != nil {
		return nil, mapS3Error(err, "list objects")
	}
	return paths, nil
}

// Close is a no-op; the SDK client holds no persistent connections that
// need explicit teardown.
func (b *S3Backend) Close(ctx context.Context) error {
	return nil
}

// Scheme returns "s3".
func (b *S3Backend) Scheme() string {
	return "s3"
}

// Name returns an identifier for logging.
func (b *S3Backend) Name() string {
	return fmt.Sprintf("s3-%s", b.bucket)
}

func (b *S3Backend) objectKey(p string) string {
	p = strings.TrimPrefix(p, "/")
	if b.prefix == "" {
		return p
	}
	return path.Join(b.prefix, p)
}

// mapS3Error translates AWS SDK errors onto the shared taxonomy.
func mapS3Error(err error, op string) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return interfaces.ErrNotFound
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %v", interfaces.ErrPermissionDenied, aerr.Message())
		case "QuotaExceeded", "ServiceQuotaExceededException":
			return fmt.Errorf("%w: %v", interfaces.ErrQuotaExceeded, aerr.Message())
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
