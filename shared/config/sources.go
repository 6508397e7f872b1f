package config

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"

	"paper-digest/shared/corpus"
	samples3 "paper-digest/shared/s3"
)

// NewSession creates an AWS session for the configured region
func (a AWSConfig) NewSession() (*session.Session, error) {
	region := a.Region
	if region == "" {
		region = regionFromEnv()
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return sess, nil
}

// CorpusSource returns where the monthly CSV files are read from: S3 when
// corpus.s3_bucket is set, the local data directory otherwise
func (c *Config) CorpusSource() (corpus.Source, error) {
	return c.SourceFor(c.Corpus.Pattern)
}

// SourceFor is CorpusSource with a different file pattern
func (c *Config) SourceFor(pattern string) (corpus.Source, error) {
	if c.Corpus.S3Bucket == "" {
		return corpus.LocalSource{Dir: c.Corpus.DataDir, Pattern: pattern}, nil
	}

	sess, err := c.AWS.NewSession()
	if err != nil {
		return nil, err
	}
	return samples3.NewCorpusSource(sess, c.Corpus.S3Bucket, c.Corpus.S3Prefix, pattern), nil
}
