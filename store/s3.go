package store

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultS3Endpoint = "s3.amazonaws.com"

// S3 reads ranges of objects in one bucket of an S3-compatible service.
// The path given to GetRange is the object key.
type S3 struct {
	client *minio.Client
	bucket string
}

// NewS3 connects to bucket. Without static keys, credentials come from the
// AWS or MinIO environment variables, then the instance role.
func NewS3(bucket string, opts Options) (*S3, error) {
	endpoint := opts.S3Endpoint
	if endpoint == "" {
		endpoint = defaultS3Endpoint
	}
	var creds *credentials.Credentials
	if opts.S3AccessKey != "" {
		creds = credentials.NewStaticV4(opts.S3AccessKey, opts.S3SecretKey, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
			&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
		})
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: opts.S3UseSSL,
		Region: opts.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("store: s3 client for %s: %w", endpoint, err)
	}
	return &S3{client: client, bucket: bucket}, nil
}

// Bucket returns the bucket name.
func (s *S3) Bucket() string { return s.bucket }

// GetRange implements RangeStore.
func (s *S3) GetRange(ctx context.Context, key string, start, length uint64) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	if start > math.MaxInt64 || length > math.MaxInt64-start {
		return nil, fmt.Errorf("%w: s3://%s/%s: range %d+%d out of bounds", ErrShortRead, s.bucket, key, start, length)
	}
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(int64(start), int64(start+length-1)); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, opts)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	return readRange(obj, length, "s3://"+s.bucket+"/"+key, start)
}
