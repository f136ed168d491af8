// Package s3 is the object store gateway. It only ever hands out
// presigned URLs; bytes never flow through the service except via those
// URLs.
package s3

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/medassure/claims-backoffice/internal/core/domain"
)

const (
	// Download URLs live long enough for an assessor to review a claim
	// in one sitting.
	downloadTTL = 24 * time.Hour
	// Upload URLs are consumed immediately by the ingest pipeline.
	uploadTTL = 2 * time.Minute
)

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignPutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type objectAPI interface {
	DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
}

type Store struct {
	bucket  string
	presign presignAPI
	objects objectAPI
}

// New builds a Store against the configured bucket. Path-style
// addressing is enabled when a custom endpoint is in play.
func New(ctx context.Context, bucket, region string) (*Store, error) {
	cfg, endpoint, err := loadAWSConfig(ctx, region)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamTransfer, "load aws config", err)
	}
	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if endpoint != "" {
			o.UsePathStyle = true
		}
	})
	return &Store{
		bucket:  bucket,
		presign: awss3.NewPresignClient(client),
		objects: client,
	}, nil
}

// NewWithClients is used by tests.
func NewWithClients(bucket string, presign presignAPI, objects objectAPI) *Store {
	return &Store{bucket: bucket, presign: presign, objects: objects}
}

// PresignDownload returns a 24 hour GET URL that renders inline in the
// browser rather than forcing a download.
func (s *Store) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String("inline"),
	}, func(o *awss3.PresignOptions) { o.Expires = downloadTTL })
	if err != nil {
		return "", domain.WrapError(domain.ErrUpstreamTransfer, "presign get", err)
	}
	return req.URL, nil
}

// PresignUpload returns a short-lived PUT URL bound to the declared
// content type.
func (s *Store) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(o *awss3.PresignOptions) { o.Expires = uploadTTL })
	if err != nil {
		return "", domain.WrapError(domain.ErrUpstreamTransfer, "presign put", err)
	}
	return req.URL, nil
}

// DeleteObject removes the blob. A single attempt, no retries; callers
// decide whether a failure is a consistency defect.
func (s *Store) DeleteObject(ctx context.Context, key string) error {
	_, err := s.objects.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return domain.WrapError(domain.ErrUpstreamTransfer, "delete object", err)
	}
	return nil
}
