package notify

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ObjectPutter is the part of *s3.Client the outbox needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3OutboxSender drops every rendered message into a bucket as a .eml
// object; a separate relay picks them up and delivers them.
type S3OutboxSender struct {
	client   ObjectPutter
	bucket   string
	template Template
	now      func() time.Time
}

// NewS3Client builds an S3 client for MinIO-style static credentials and a
// custom endpoint.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.RootUser,
			cfg.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return client, nil
}

func NewS3OutboxSender(client ObjectPutter, bucket string, template Template) *S3OutboxSender {
	return &S3OutboxSender{client: client, bucket: bucket, template: template, now: time.Now}
}

func (s *S3OutboxSender) objectKey() string {
	d := s.now().UTC()
	return fmt.Sprintf("outbox/%d/%02d/%02d/%v.eml", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *S3OutboxSender) Send(ctx context.Context, destination, code string) error {
	if err := validDestination(destination); err != nil {
		return err
	}

	key := s.objectKey()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(s.template.Render(destination, code)),
		ContentType: aws.String("message/rfc822"),
	})
	if err != nil {
		return fmt.Errorf("put outbox object %s: %w", key, err)
	}

	return nil
}
