package contentdelivery

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/you/paywallsvc/domain"
)

// S3LocatorImpl implements domain.ContentLocator with presigned S3 GET URLs.
// The core hands back a locator, never the bytes; the delivery collaborator
// (S3 in front of a CDN) serves the object.
type S3LocatorImpl struct {
	presigner *s3.PresignClient
	bucket    string
	ttl       time.Duration
}

// NewS3Locator creates a new S3-backed content locator
func NewS3Locator(ctx context.Context, bucket, region string, ttl time.Duration) (domain.ContentLocator, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3LocatorImpl{
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		ttl:       ttl,
	}, nil
}

// Locate implements domain.ContentLocator
func (l *S3LocatorImpl) Locate(ctx context.Context, content *domain.ContentItem) (string, error) {
	req, err := l.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &l.bucket,
		Key:    &content.ObjectKey,
	}, s3.WithPresignExpires(l.ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign content object: %w", err)
	}
	return req.URL, nil
}
