package blob

import (
	"context"
	"io"

	"github.com/code19m/errx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds the connection parameters for the MinIO backend.
type MinioConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket" default:"myfiles"`
	UseSSL          bool   `yaml:"use_ssl" default:"false"`
}

func (cfg *MinioConfig) validate() error {
	if cfg.Endpoint == "" {
		return errx.New("missing required config: storage.minio.endpoint")
	}
	if cfg.AccessKeyID == "" {
		return errx.New("missing required config: storage.minio.access_key_id")
	}
	if cfg.SecretAccessKey == "" {
		return errx.New("missing required config: storage.minio.secret_access_key")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "myfiles"
	}
	return nil
}

// MinioStore stores blobs as objects in a single MinIO bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and ensures the configured bucket exists.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errx.New("failed to create minio client", errx.WithDetails(errx.D{"error": err}))
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errx.New("failed to check bucket existence", errx.WithDetails(errx.D{"error": err}))
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errx.New("failed to create bucket", errx.WithDetails(errx.D{"error": err}))
		}
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, errx.Wrap(err)
	}
	return info.Size, nil
}

func (s *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	// GetObject defers errors to the first read, so stat first to report
	// a missing key eagerly.
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
			return nil, errx.New(
				"blob not found",
				errx.WithCode(CodeBlobNotFound),
				errx.WithType(errx.T_NotFound),
				errx.WithDetails(errx.D{"key": key}),
			)
		}
		return nil, errx.Wrap(err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return obj, nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	return errx.Wrap(s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}))
}

func (s *MinioStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return errx.Wrap(err)
}
