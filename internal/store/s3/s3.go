// Package s3 implements store.Store on Amazon S3 and S3-compatible
// services (MinIO, localstack). Containers map to buckets.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"callscribe/internal/store"
)

// Config holds S3 connection settings.
type Config struct {
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// Store implements store.Store against S3.
type Store struct {
	client *awss3.Client
	region string
}

// New creates an S3-backed store from the given config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("store: load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	return &Store{
		client: awss3.NewFromConfig(awsCfg, s3Opts...),
		region: cfg.Region,
	}, nil
}

// EnsureContainer creates the bucket if it does not already exist.
func (s *Store) EnsureContainer(ctx context.Context, container string) error {
	input := &awss3.CreateBucketInput{Bucket: aws.String(container)}
	if s.region != DefaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	_, err := s.client.CreateBucket(ctx, input)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("store: create container %s: %w", container, err)
	}
	return nil
}

// Put uploads data under the sanitized key, overwriting any existing object.
func (s *Store) Put(ctx context.Context, container, key string, data []byte) (store.Address, error) {
	sanitized := store.SanitizeKey(key)

	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(sanitized),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return store.Address{}, fmt.Errorf("store: upload %s/%s: %w", container, sanitized, err)
	}

	return store.Address{Container: container, Key: sanitized}, nil
}

// Get downloads the object at addr.
func (s *Store) Get(ctx context.Context, addr store.Address) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(addr.Container),
		Key:    aws.String(addr.Key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("store: download %s: %w", addr, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", addr, err)
	}
	return data, nil
}

// List returns keys in container starting with prefix, in listing order.
func (s *Store) List(ctx context.Context, container, prefix string) ([]string, error) {
	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(container),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: list %s: %w", container, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// Exists reports whether an object is present at addr.
func (s *Store) Exists(ctx context.Context, addr store.Address) (bool, error) {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(addr.Container),
		Key:    aws.String(addr.Key),
	})
	if err != nil {
		return false, nil
	}
	return true, nil
}

// SignedGetURL returns a presigned read-only URL valid for expiry.
func (s *Store) SignedGetURL(ctx context.Context, addr store.Address, expiry time.Duration) (string, error) {
	presigner := awss3.NewPresignClient(s.client)
	req, err := presigner.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(addr.Container),
		Key:    aws.String(addr.Key),
	}, awss3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("store: presign %s: %w", addr, err)
	}
	return req.URL, nil
}
