package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// expiresMeta is the object metadata key holding the expiry time.
const expiresMeta = "rs-expires-at"

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps snapshots as objects in an S3 bucket.
//
// Expired objects are rejected on Load but not deleted; configure a
// bucket lifecycle rule on the prefix to reclaim them.
//
// Example usage:
//
//	client := s3.New(s3.Options{Region: "eu-west-1", Credentials: creds})
//	store := snapshot.NewS3Store(client, "my-bucket", "snapshots/")
type S3Store struct {
	client S3API
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Store creates a store writing to bucket under prefix.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *S3Store) key(id string) *string {
	return aws.String(s.prefix + id + ".html")
}

// Save implements Store.
func (s *S3Store) Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         s.key(id),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/html; charset=utf-8"),
	}
	if !expiresAt.IsZero() {
		in.Metadata = map[string]string{expiresMeta: expiresAt.UTC().Format(time.RFC3339)}
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("snapshot: s3 put %s: %w", id, err)
	}
	return nil
}

// Load implements Store.
func (s *S3Store) Load(ctx context.Context, id string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(id),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("snapshot: s3 get %s: %w", id, err)
	}
	defer out.Body.Close()

	if exp, ok := out.Metadata[expiresMeta]; ok {
		t, err := time.Parse(time.RFC3339, exp)
		if err == nil && s.now().After(t) {
			return nil, ErrNotFound
		}
	}
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("snapshot: s3 read %s: %w", id, err)
	}
	return data, nil
}

// Delete implements Store.
func (s *S3Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(id),
	})
	if err != nil {
		return fmt.Errorf("snapshot: s3 delete %s: %w", id, err)
	}
	return nil
}

// Close implements Store. The client is owned by the caller.
func (s *S3Store) Close() error { return nil }
