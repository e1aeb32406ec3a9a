// Package s3 implements the remote store contract over Amazon S3 or any
// S3-compatible object store.
//
// The content identity for an object is its ETag: S3 recomputes it per
// object version, which gives the cache a stable per-version key without
// content hashing on our side.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/assetflow/assetflow/pkg/remote"
)

// Config contains configuration for the S3 store.
type Config struct {
	// Client is the configured S3 client.
	Client *awss3.Client

	// Bucket is the S3 bucket name.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "assets/" results in keys like "assets/Sprites/Image01.png".
	KeyPrefix string
}

// Store is the S3 implementation of remote.Store.
//
// Safe for concurrent use; the underlying client owns the connection pool.
type Store struct {
	client    *awss3.Client
	bucket    string
	keyPrefix string
}

// New creates an S3 store with the given configuration.
func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, errors.New("s3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	return &Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// NewClientFromConfig creates an S3 client from configuration parameters.
// An empty endpoint uses AWS; a custom endpoint enables path-style access
// for S3-compatible stores (MinIO, Localstack).
func NewClientFromConfig(ctx context.Context, endpoint, region, accessKeyID, secretAccessKey string) (*awss3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return client, nil
}

// key maps an object name to its bucket key.
func (s *Store) key(name string) string {
	return s.keyPrefix + name
}

// Stat implements remote.Store using HeadObject. The trimmed ETag is the
// content identity.
func (s *Store) Stat(ctx context.Context, name string) (remote.ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return remote.ObjectInfo{}, remote.ErrObjectNotFound
		}
		return remote.ObjectInfo{}, fmt.Errorf("head object %q: %w", name, err)
	}

	info := remote.ObjectInfo{Name: name}
	if out.ETag != nil {
		info.ID = strings.Trim(*out.ETag, `"`)
	}
	if out.ContentLength != nil {
		info.Size = *out.ContentLength
	}
	return info, nil
}

// Get implements remote.Store using GetObject.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, remote.ErrObjectNotFound
		}
		return nil, fmt.Errorf("get object %q: %w", name, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", name, err)
	}
	return data, nil
}

// List implements remote.Store using ListObjectsV2 pagination. Returned
// names have the key prefix stripped and preserve S3's lexicographic order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			names = append(names, strings.TrimPrefix(*obj.Key, s.keyPrefix))
		}
	}
	return names, nil
}

// Close implements remote.Store. The S3 client has no explicit shutdown.
func (s *Store) Close() error {
	return nil
}

// isNotFound reports whether the error is an S3 missing-object condition.
// HeadObject returns types.NotFound, GetObject returns types.NoSuchKey.
func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &noSuchKey)
}

var _ remote.Store = (*Store)(nil)
