package s3

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Uploader publishes weekly sample files to S3
type Uploader struct {
	s3Client s3iface.S3API
	bucket   string
	prefix   string
	now      func() time.Time
}

// NewUploader creates a new S3 uploader
func NewUploader(sess *session.Session, bucket, prefix string) *Uploader {
	return NewUploaderWithClient(s3.New(sess), bucket, prefix)
}

// NewUploaderWithClient creates an uploader around an existing S3 client
func NewUploaderWithClient(client s3iface.S3API, bucket, prefix string) *Uploader {
	return &Uploader{
		s3Client: client,
		bucket:   bucket,
		prefix:   prefix,
		now:      time.Now,
	}
}

// UploadResult represents the result of an S3 upload operation
type UploadResult struct {
	Bucket         string    `json:"bucket"`
	S3Key          string    `json:"s3_key"`
	CompressedSize int64     `json:"compressed_size"`
	OriginalSize   int64     `json:"original_size"`
	Replaced       bool      `json:"replaced"`
	Timestamp      time.Time `json:"timestamp"`
}

// URI returns the s3:// location of the uploaded object
func (r *UploadResult) URI() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.S3Key)
}

// UploadSample gzips a sample CSV and stores it under <prefix>/<week>.csv.gz.
// An existing object for the same week is overwritten and reported as Replaced.
func (u *Uploader) UploadSample(ctx context.Context, week string, csvData []byte, paperCount int, traceID string) (*UploadResult, error) {
	s3Key := u.SampleKey(week)

	replaced, err := u.KeyExists(ctx, s3Key)
	if err != nil {
		return nil, err
	}

	compressedData, err := compressData(csvData)
	if err != nil {
		return nil, fmt.Errorf("failed to compress sample: %w", err)
	}

	uploadedAt := u.now().UTC()
	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(compressedData),
		ContentType: aws.String("application/gzip"),
		Metadata: map[string]*string{
			"week":        aws.String(week),
			"paper-count": aws.String(fmt.Sprintf("%d", paperCount)),
			"trace-id":    aws.String(traceID),
			"upload-time": aws.String(uploadedAt.Format(time.RFC3339)),
		},
	}

	if _, err := u.s3Client.PutObjectWithContext(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to upload %s to S3: %w", s3Key, err)
	}

	return &UploadResult{
		Bucket:         u.bucket,
		S3Key:          s3Key,
		CompressedSize: int64(len(compressedData)),
		OriginalSize:   int64(len(csvData)),
		Replaced:       replaced,
		Timestamp:      uploadedAt,
	}, nil
}

// SampleKey returns the object key for a week's sample, e.g. weekly-samples/2025WK46.csv.gz
func (u *Uploader) SampleKey(week string) string {
	return path.Join(u.prefix, week+".csv.gz")
}

// KeyExists checks if an S3 key already exists
func (u *Uploader) KeyExists(ctx context.Context, key string) (bool, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}

	_, err := u.s3Client.HeadObjectWithContext(ctx, input)
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check S3 key existence: %w", err)
	}

	return true, nil
}

// compressData compresses data using gzip
func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)

	if _, err := gzipWriter.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write to gzip writer: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// HeadObject reports a missing key as NotFound, GetObject as NoSuchKey
func isNotFoundError(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	return aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound"
}
