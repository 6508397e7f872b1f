package s3

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// CorpusSource lists and downloads monthly CSV files stored in S3. Objects
// ending in .gz are decompressed transparently. It satisfies corpus.Source.
type CorpusSource struct {
	s3Client s3iface.S3API
	bucket   string
	prefix   string
	pattern  string
}

// NewCorpusSource creates a corpus source for s3://bucket/prefix matching pattern
func NewCorpusSource(sess *session.Session, bucket, prefix, pattern string) *CorpusSource {
	return NewCorpusSourceWithClient(s3.New(sess), bucket, prefix, pattern)
}

// NewCorpusSourceWithClient creates a corpus source around an existing S3 client
func NewCorpusSourceWithClient(client s3iface.S3API, bucket, prefix, pattern string) *CorpusSource {
	return &CorpusSource{
		s3Client: client,
		bucket:   bucket,
		prefix:   prefix,
		pattern:  pattern,
	}
}

// List returns the keys whose base name matches the pattern, sorted
func (s *CorpusSource) List(ctx context.Context) ([]string, error) {
	if _, err := path.Match(s.pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", s.pattern, err)
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if s.prefix != "" {
		input.Prefix = aws.String(strings.TrimSuffix(s.prefix, "/") + "/")
	}

	var keys []string
	err := s.s3Client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if s.matches(key) {
				keys = append(keys, key)
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, s.prefix, err)
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *CorpusSource) matches(key string) bool {
	base := strings.TrimSuffix(path.Base(key), ".gz")
	ok, _ := path.Match(s.pattern, base)
	return ok
}

// Open downloads an object, decompressing it if it's gzipped
func (s *CorpusSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}

	result, err := s.s3Client.GetObjectWithContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to download S3 object %s/%s: %w", s.bucket, key, err)
	}

	if !strings.HasSuffix(key, ".gz") && !strings.HasSuffix(key, ".gzip") {
		return result.Body, nil
	}

	gzipReader, err := gzip.NewReader(result.Body)
	if err != nil {
		result.Body.Close()
		return nil, fmt.Errorf("failed to create gzip reader for %s/%s: %w", s.bucket, key, err)
	}
	return &gzipBody{Reader: gzipReader, body: result.Body}, nil
}

func (s *CorpusSource) String() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, path.Join(s.prefix, s.pattern))
}

type gzipBody struct {
	*gzip.Reader
	body io.ReadCloser
}

func (g *gzipBody) Close() error {
	gzErr := g.Reader.Close()
	if err := g.body.Close(); err != nil {
		return err
	}
	return gzErr
}
