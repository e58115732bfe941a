package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/pageza/issuedesk/backend/config"
)

const s3KeyPrefix = "issue-media"

// PutObjectAPI is the subset of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores media as public objects in a bucket.
type S3 struct {
	client    PutObjectAPI
	bucket    string
	publicURL func(key string) string
}

func NewS3(client PutObjectAPI, bucket string, publicURL func(key string) string) *S3 {
	return &S3{client: client, bucket: bucket, publicURL: publicURL}
}

func (s *S3) Name() string { return string(config.ProviderS3) }

func (s *S3) UploadFile(ctx context.Context, localPath, name, mimeType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat upload: %w", err)
	}

	key := path.Join(s3KeyPrefix, uuid.New().String()+filepath.Ext(name))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               f,
		ContentLength:      aws.Int64(info.Size()),
		ContentType:        aws.String(mimeType),
		ContentDisposition: aws.String(mime.FormatMediaType("inline", map[string]string{"filename": name})),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "SlowDown" || apiErr.ErrorCode() == "QuotaExceeded") {
			return "", fmt.Errorf("%w: %s", ErrQuotaExceeded, apiErr.ErrorMessage())
		}
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := s.publicURL(key)
	log.Printf("[S3] Uploaded %s to %s", name, url)
	return url, nil
}
