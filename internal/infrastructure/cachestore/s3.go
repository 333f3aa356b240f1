package cachestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	infraconfig "github.com/Erickgiber/debts-my-clients/internal/infrastructure/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

const (
	defaultS3Prefix = "offline"
	markerObject    = ".bucket"
	entriesDir      = "e/"
	deleteBatchSize = 1000
)

// S3API is the subset of the S3 client used by S3Storage
type S3API interface {
	s3.ListObjectsV2APIClient
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, opts ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Storage keeps each bucket under its own key prefix in one S3 bucket:
//
//	<prefix>/<name>/.bucket      marker
//	<prefix>/<name>/e/<key>      encoded record per request key
//
// It works with any S3-compatible service (AWS S3, MinIO, RustFS).
type S3Storage struct {
	client S3API
	bucket string
	prefix string
	logger *zap.Logger
}

var _ offline.CacheStorage = (*S3Storage)(nil)

// S3Option configures S3Storage
type S3Option func(*S3Storage)

// WithS3Logger sets the logger
func WithS3Logger(logger *zap.Logger) S3Option {
	return func(s *S3Storage) {
		s.logger = logger
	}
}

// WithS3Prefix sets the key prefix under which buckets are stored
func WithS3Prefix(prefix string) S3Option {
	return func(s *S3Storage) {
		if p := strings.Trim(prefix, "/"); p != "" {
			s.prefix = p
		}
	}
}

// NewS3StorageWithClient creates a storage over an existing client
func NewS3StorageWithClient(client S3API, bucket string, opts ...S3Option) *S3Storage {
	s := &S3Storage{
		client: client,
		bucket: bucket,
		prefix: defaultS3Prefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewS3Storage creates a storage from configuration
func NewS3Storage(ctx context.Context, cfg infraconfig.StorageConfig, opts ...S3Option) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("storage credentials are required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	opts = append([]S3Option{WithS3Prefix(cfg.KeyPrefix)}, opts...)
	return NewS3StorageWithClient(client, cfg.Bucket, opts...), nil
}

// EnsureBucket creates the S3 bucket when it does not exist
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating storage bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var alreadyOwned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &alreadyOwned) {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (s *S3Storage) bucketPrefix(name string) string {
	return s.prefix + "/" + name + "/"
}

// Open implements offline.CacheStorage
func (s *S3Storage) Open(ctx context.Context, name string) (offline.Bucket, error) {
	if err := validBucketName(name); err != nil {
		return nil, err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.bucketPrefix(name) + markerObject),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", name, err)
	}
	return &s3Bucket{storage: s, name: name, root: s.bucketPrefix(name)}, nil
}

// Keys implements offline.CacheStorage
func (s *S3Storage) Keys(ctx context.Context) ([]string, error) {
	root := s.prefix + "/"
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(root),
		Delimiter: aws.String("/"),
	})
	var names []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list buckets: %w", err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), root), "/")
			if name != "" {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete implements offline.CacheStorage. Objects are removed in batches;
// a failure part way leaves the remainder for the next purge.
func (s *S3Storage) Delete(ctx context.Context, name string) (bool, error) {
	keys, err := s.listObjects(ctx, s.bucketPrefix(name))
	if err != nil {
		return false, fmt.Errorf("delete bucket %s: %w", name, err)
	}
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return false, fmt.Errorf("delete bucket %s: %w", name, err)
		}
		if len(out.Errors) > 0 {
			s.logger.Warn("some cache objects were not deleted",
				zap.String("bucket", name),
				zap.Int("failed", len(out.Errors)))
		}
	}
	return len(keys) > 0, nil
}

func (s *S3Storage) listObjects(ctx context.Context, prefix string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

type s3Bucket struct {
	storage *S3Storage
	name    string
	root    string
}

func (b *s3Bucket) objectKey(key offline.RequestKey) string {
	return b.root + entriesDir + encodeKey(key)
}

func (b *s3Bucket) Match(ctx context.Context, key offline.RequestKey) (*offline.StoredResponse, bool, error) {
	out, err := b.storage.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.storage.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if isNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("match %s in %s: %w", key, b.name, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read %s in %s: %w", key, b.name, err)
	}
	_, resp, err := decodeRecord(data)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

// Put writes the record. Writes to a bucket whose marker is gone are dropped.
func (b *s3Bucket) Put(ctx context.Context, key offline.RequestKey, resp *offline.StoredResponse) error {
	_, err := b.storage.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.storage.bucket),
		Key:    aws.String(b.root + markerObject),
	})
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("put %s in %s: %w", key, b.name, err)
	}

	data, err := encodeRecord(key, resp)
	if err != nil {
		return err
	}
	_, err = b.storage.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.storage.bucket),
		Key:         aws.String(b.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s in %s: %w", key, b.name, err)
	}
	return nil
}

func (b *s3Bucket) Delete(ctx context.Context, key offline.RequestKey) (bool, error) {
	objectKey := b.objectKey(key)
	_, err := b.storage.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.storage.bucket),
		Key:    aws.String(objectKey),
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete %s from %s: %w", key, b.name, err)
	}
	_, err = b.storage.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.storage.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return false, fmt.Errorf("delete %s from %s: %w", key, b.name, err)
	}
	return true, nil
}

func (b *s3Bucket) Keys(ctx context.Context) ([]offline.RequestKey, error) {
	objects, err := b.storage.listObjects(ctx, b.root+entriesDir)
	if err != nil {
		return nil, fmt.Errorf("list keys of %s: %w", b.name, err)
	}
	keys := make([]offline.RequestKey, 0, len(objects))
	for _, obj := range objects {
		k, err := decodeKey(strings.TrimPrefix(obj, b.root+entriesDir))
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
