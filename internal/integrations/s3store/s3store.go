package s3store

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"path"
	"strings"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Keys per DeleteObjects request, the S3 maximum
const deleteBatch = 1000

// Service reaches the bucket holding the partners' source documents
type Service interface {
	// ObjectExists checks if the object is in the bucket
	ObjectExists(ctx context.Context, key string) (bool, error)
	// DeleteObject removes an object from the bucket
	DeleteObject(ctx context.Context, key string) error
	// DeleteFolder removes every object under a prefix, returns the count
	DeleteFolder(ctx context.Context, prefix string) (int, error)
}

type service struct {
	client *s3.Client
	bucket string
}

// New creates a new S3 client for the configured bucket.
// A custom endpoint switches to path-style addressing.
func New(ctx context.Context, cfg *config.Config) (Service, error) {

	if cfg.S3BucketName == "" {
		return nil, errors.New("no S3 bucket configured")
	}

	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.S3Region),
	}

	// Without static keys fall back to the default chain (env, profile, role)
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	sdkConfig, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK configuration: %w", err)
	}

	client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &service{client: client, bucket: cfg.S3BucketName}, nil
}

// ObjectExists checks if the object is in the bucket
func (s *service) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	if err == nil {
		return true, nil
	}

	if isNotFound(err) {
		return false, nil
	}

	return false, fmt.Errorf("couldn't check object %s:%s: %w", s.bucket, key, err)
}

// DeleteObject removes an object from the bucket
func (s *service) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	if err != nil && !isNotFound(err) {
		return fmt.Errorf("couldn't delete object %s:%s: %w", s.bucket, key, err)
	}

	return nil
}

// DeleteFolder removes every object under the prefix
func (s *service) DeleteFolder(ctx context.Context, prefix string) (int, error) {

	prefix, err := FolderPrefix(prefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("couldn't list %s:%s: %w", s.bucket, prefix, err)
		}

		for batch := range chunk(page.Contents, deleteBatch) {
			ids := make([]types.ObjectIdentifier, 0, len(batch))
			for _, obj := range batch {
				ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
			}

			out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
			})

			if err != nil {
				return deleted, fmt.Errorf("couldn't delete objects under %s:%s: %w", s.bucket, prefix, err)
			}

			for _, e := range out.Errors {
				log.Printf(
					"Could not delete %s: %s",
					aws.ToString(e.Key), aws.ToString(e.Message),
				)
			}

			deleted += len(ids) - len(out.Errors)
		}
	}

	return deleted, nil
}

// FolderPrefix turns a folder or a file key into a listing prefix.
// A prefix at the bucket root is refused.
func FolderPrefix(key string) (string, error) {
	key = strings.Trim(key, "/")
	if key == "" || !strings.Contains(key, "/") && path.Ext(key) != "" {
		return "", fmt.Errorf("refusing to delete at the bucket root: %q", key)
	}

	// A file key deletes its containing folder
	if path.Ext(key) != "" {
		key = path.Dir(key)
	}

	return key + "/", nil
}

// isNotFound reports whether S3 said the object is not there
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.ErrorCode() {
	case "NotFound", "NoSuchKey":
		return true
	}

	return false
}

// chunk splits items into consecutive slices of at most size
func chunk[T any](items []T, size int) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		for start := 0; start < len(items); start += size {
			end := min(start+size, len(items))
			if !yield(items[start:end]) {
				return
			}
		}
	}
}
