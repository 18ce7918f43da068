package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

const (
	BackendName = "s3"
	scheme      = "s3://"

	streamPartSize = 16 << 20

	defaultEndpoint = "s3.amazonaws.com"
	defaultRegion   = "us-east-1"
)

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Storage writes objects to an S3 compatible bucket and returns "s3://bucket/key" locations.
type Storage struct {
	client *minio.Client
	bucket string
	region string
}

func New(cfg Config) (*Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	creds, err := resolveCredentials(cfg)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &Storage{client: client, bucket: cfg.Bucket, region: region}, nil
}

// resolveCredentials prefers explicit keys, then the AWS env, shared file and instance role chain.
func resolveCredentials(cfg Config) (*credentials.Credentials, error) {
	if cfg.AccessKeyID != "" {
		return credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""), nil
	}
	chain := credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.FileAWSCredentials{},
		&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport, Timeout: 5 * time.Second}},
	})
	value, err := chain.Get()
	if err != nil || value.AccessKeyID == "" {
		return nil, errors.New("aws credentials not found")
	}
	return chain, nil
}

func (s *Storage) Backend() string {
	return BackendName
}

// EnsureBucket creates the bucket when it does not exist yet. Used against local MinIO.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *Storage) Save(ctx context.Context, key string, data io.Reader) (string, error) {
	opts := minio.PutObjectOptions{ContentType: "application/octet-stream"}
	size := objectSize(data)
	if size < 0 {
		// Without a part size minio-go buffers for the 5 TiB worst case.
		opts.PartSize = streamPartSize
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, data, size, opts)
	if err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "s3 put object", err)
	}
	return Location(s.bucket, key), nil
}

// objectSize reports the remaining length of in-memory readers, -1 otherwise.
func objectSize(r io.Reader) int64 {
	switch v := r.(type) {
	case interface{ Len() int }:
		return int64(v.Len())
	case interface{ Size() int64 }:
		return v.Size()
	default:
		return -1
	}
}

func (s *Storage) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify("s3 get object", err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller starts streaming.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, classify("s3 stat object", err)
	}
	return obj, nil
}

func (s *Storage) Delete(ctx context.Context, location string) error {
	bucket, key, err := ParseLocation(location)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return classify("s3 remove object", err)
	}
	return nil
}

func Location(bucket, key string) string {
	return scheme + bucket + "/" + key
}

func IsLocation(location string) bool {
	return strings.HasPrefix(location, scheme)
}

func ParseLocation(location string) (bucket, key string, err error) {
	if !IsLocation(location) {
		return "", "", domain.WrapError(domain.ErrInvalidInput, "parse s3 location", fmt.Errorf("%q has no s3 scheme", location))
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, scheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", domain.WrapError(domain.ErrInvalidInput, "parse s3 location", fmt.Errorf("malformed location %q", location))
	}
	return bucket, key, nil
}

func classify(op string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return domain.WrapError(domain.ErrDocumentNotFound, op, err)
	}
	return domain.WrapError(domain.ErrTemporary, op, err)
}
