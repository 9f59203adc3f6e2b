package blob

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore is the S3-compatible blob store used outside development.
// The ref is the object key inside the configured bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	log    *slog.Logger
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func NewMinioStore(cfg MinioConfig, log *slog.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, log: log}, nil
}

func (s *MinioStore) Upload(ctx context.Context, path string, data []byte) (string, error) {
	ref := sanitize(path)
	_, err := s.client.PutObject(ctx, s.bucket, ref, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: ContentType(data)})
	if err != nil {
		return "", err
	}
	s.log.Debug("Blob stored", "bucket", s.bucket, "ref", ref, "bytes", len(data))
	return ref, nil
}

func (s *MinioStore) URL(ref string) (string, error) {
	return s.client.EndpointURL().String() + "/" + s.bucket + "/" + ref, nil
}
