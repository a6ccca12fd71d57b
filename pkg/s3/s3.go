package s3

import (
	"bytes"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"golang.org/x/net/context"
)

const presignTTL = 15 * time.Minute

type Config struct {
	Region          string `validate:"required"`
	AccessKeyID     string `validate:"required"`
	SecretAccessKey string `validate:"required"`
	Bucket          string `validate:"required"`
	Endpoint        string
	Prefix          string
}

type ItfS3 interface {
	UploadSnapshot(ctx context.Context, fileName string, data []byte, contentType string) (string, error)
	PresignUrl(key string) (string, error)
}

type s3Client struct {
	client     s3iface.S3API
	uploader   s3manageriface.UploaderAPI
	bucketName string
	prefix     string
}

func New(cfg Config) (ItfS3, error) {
	sess, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	return &s3Client{
		client:     s3.New(sess),
		uploader:   s3manager.NewUploader(sess),
		bucketName: cfg.Bucket,
		prefix:     cfg.Prefix,
	}, nil
}

// UploadSnapshot stores data under a time-prefixed key and returns the key.
func (s *s3Client) UploadSnapshot(ctx context.Context, fileName string, data []byte, contentType string) (string, error) {
	key := generateUniqueFileName(s.prefix, fileName, time.Now())

	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return key, nil
}

func (s *s3Client) PresignUrl(key string) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	urlStr, err := req.Presign(presignTTL)
	if err != nil {
		return "", err
	}

	return urlStr, nil
}

func newSession(cfg Config) (*session.Session, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

func generateUniqueFileName(prefix, fileName string, now time.Time) string {
	name := fmt.Sprintf("%s-%s", now.UTC().Format("20060102T150405.000000000"), fileName)
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
