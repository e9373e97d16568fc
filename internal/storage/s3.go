package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sirupsen/logrus"
)

// S3Config configures an S3 compatible bucket (AWS, R2, MinIO).
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	EndpointURL     string
}

// S3Storage uploads assets to an S3 bucket.
type S3Storage struct {
	bucket   string
	baseURL  string
	client   *s3.S3
	uploader *s3manager.Uploader
	logger   *logrus.Entry
}

func NewS3Storage(cfg S3Config, logger *logrus.Logger) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.EndpointURL != "" {
		awsCfg.Endpoint = aws.String(cfg.EndpointURL)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	baseURL := fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
	if cfg.EndpointURL != "" {
		baseURL = strings.TrimRight(cfg.EndpointURL, "/") + "/" + cfg.Bucket
	}

	return &S3Storage{
		bucket:   cfg.Bucket,
		baseURL:  baseURL,
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		logger:   logger.WithField("component", "s3_storage"),
	}, nil
}

func (s *S3Storage) Save(ctx context.Context, r io.Reader, path, contentType string) (string, error) {
	key, err := cleanKey(path)
	if err != nil {
		return "", err
	}

	input := &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to upload object")
		return "", fmt.Errorf("failed to upload to s3: %w", err)
	}
	return s.URL(key), nil
}

func (s *S3Storage) URL(path string) string {
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (s *S3Storage) Delete(ctx context.Context, path string) error {
	key, err := cleanKey(path)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from s3: %w", err)
	}
	return nil
}

func (s *S3Storage) Exists(ctx context.Context, path string) (bool, error) {
	key, err := cleanKey(path)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.RequestFailure
		if errors.As(err, &aerr) && aerr.StatusCode() == 404 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
