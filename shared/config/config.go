package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"gopkg.in/yaml.v3"

	"paper-digest/shared/sampler"
)

// DefaultConfigKey is the S3 key used when CONFIG_BUCKET is set without CONFIG_KEY
const DefaultConfigKey = "paper-digest/config.yaml"

// Config represents the complete toolkit configuration
type Config struct {
	Corpus   CorpusConfig   `yaml:"corpus"`
	Sampling SamplingConfig `yaml:"sampling"`
	Output   OutputConfig   `yaml:"output"`
	Digest   DigestConfig   `yaml:"digest"`
	AWS      AWSConfig      `yaml:"aws"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CorpusConfig says where the monthly CSV files live
type CorpusConfig struct {
	DataDir            string `yaml:"data_dir"`
	Pattern            string `yaml:"pattern"`
	SubcategoryPattern string `yaml:"subcategory_pattern"` // files read by the subcategory sampler
	S3Bucket           string `yaml:"s3_bucket"`           // when set, the corpus is read from S3 instead of DataDir
	S3Prefix           string `yaml:"s3_prefix"`
	Deduplicate        bool   `yaml:"deduplicate"`
}

// SamplingConfig represents sampling configuration
type SamplingConfig struct {
	SampleSize int    `yaml:"sample_size"`
	Seed       uint64 `yaml:"seed"`
}

// OutputConfig represents local output locations
type OutputConfig struct {
	SamplesDir     string `yaml:"samples_dir"`
	SubcategoryDir string `yaml:"subcategory_dir"`
}

// DigestConfig configures the previous-articles consolidation
type DigestConfig struct {
	ArticlesDir string `yaml:"articles_dir"`
	MaxArticles int    `yaml:"max_articles"`
	OutputFile  string `yaml:"output_file"`
}

// AWSConfig represents AWS service configuration
type AWSConfig struct {
	Region   string         `yaml:"region"`
	S3       S3Config       `yaml:"s3"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
}

// S3Config represents S3 configuration
type S3Config struct {
	SamplesBucket string `yaml:"samples_bucket"`
	SamplesPrefix string `yaml:"samples_prefix"`
	ConfigBucket  string `yaml:"config_bucket"`
}

// DynamoDBConfig represents DynamoDB configuration
type DynamoDBConfig struct {
	SamplesTable string `yaml:"samples_table"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PublishToS3 reports whether samples should be uploaded
func (c *Config) PublishToS3() bool {
	return c.AWS.S3.SamplesBucket != ""
}

// PublishToDynamoDB reports whether sampled papers should be written to DynamoDB
func (c *Config) PublishToDynamoDB() bool {
	return c.AWS.DynamoDB.SamplesTable != ""
}

// Validate checks the values the jobs cannot run without
func (c *Config) Validate() error {
	if c.Sampling.SampleSize <= 0 {
		return fmt.Errorf("sampling.sample_size must be positive, got %d", c.Sampling.SampleSize)
	}
	if c.Corpus.Pattern == "" {
		return fmt.Errorf("corpus.pattern must not be empty")
	}
	if c.Corpus.S3Bucket == "" && c.Corpus.DataDir == "" {
		return fmt.Errorf("corpus.data_dir or corpus.s3_bucket is required")
	}
	if c.Digest.MaxArticles <= 0 {
		return fmt.Errorf("digest.max_articles must be positive, got %d", c.Digest.MaxArticles)
	}
	return nil
}

// ApplyEnv overrides configuration values from the environment. lookup is
// normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DATA_DIR":        &c.Corpus.DataDir,
		"CORPUS_PATTERN":  &c.Corpus.Pattern,
		"CORPUS_BUCKET":   &c.Corpus.S3Bucket,
		"CORPUS_PREFIX":   &c.Corpus.S3Prefix,
		"SAMPLES_DIR":     &c.Output.SamplesDir,
		"SUBCATEGORY_DIR": &c.Output.SubcategoryDir,
		"ARTICLES_DIR":    &c.Digest.ArticlesDir,
		"SAMPLES_BUCKET":  &c.AWS.S3.SamplesBucket,
		"SAMPLES_PREFIX":  &c.AWS.S3.SamplesPrefix,
		"SAMPLES_TABLE":   &c.AWS.DynamoDB.SamplesTable,
		"AWS_REGION":      &c.AWS.Region,
		"LOG_LEVEL":       &c.Logging.Level,
	}
	for name, target := range strs {
		if v, ok := lookup(name); ok && v != "" {
			*target = v
		}
	}

	if v, ok := lookup("SAMPLE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_SIZE %q: %w", v, err)
		}
		c.Sampling.SampleSize = n
	}
	if v, ok := lookup("SAMPLE_SEED"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_SEED %q: %w", v, err)
		}
		c.Sampling.Seed = n
	}
	if v, ok := lookup("DEDUPLICATE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEDUPLICATE %q: %w", v, err)
		}
		c.Corpus.Deduplicate = b
	}
	return nil
}

// Manager handles configuration loading and management
type Manager struct {
	s3Client s3iface.S3API
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(regionFromEnv()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &Manager{
		s3Client: s3.New(sess),
	}, nil
}

// NewManagerWithClient creates a manager around an existing S3 client
func NewManagerWithClient(client s3iface.S3API) *Manager {
	return &Manager{s3Client: client}
}

// Load resolves the configuration for a run: S3 when CONFIG_BUCKET is set,
// otherwise path when given, otherwise defaults. Environment overrides are
// applied last and the result is validated.
func (m *Manager) Load(ctx context.Context, path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)

	switch bucket := os.Getenv("CONFIG_BUCKET"); {
	case bucket != "":
		key := os.Getenv("CONFIG_KEY")
		if key == "" {
			key = DefaultConfigKey
		}
		cfg, err = m.LoadFromS3(ctx, bucket, key)
	case path != "":
		cfg, err = m.LoadFromFile(path)
	default:
		cfg = GetDefaultConfig()
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromS3 loads configuration from S3
func (m *Manager) LoadFromS3(ctx context.Context, bucket, key string) (*Config, error) {
	if m.s3Client == nil {
		return nil, fmt.Errorf("no S3 client configured for config bucket %s", bucket)
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}

	result, err := m.s3Client.GetObjectWithContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}

	return m.parseConfig(data)
}

// LoadFromFile loads configuration from a local YAML file
func (m *Manager) LoadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return m.parseConfig(data)
}

// LoadFromBytes loads configuration from byte data
func (m *Manager) LoadFromBytes(data []byte) (*Config, error) {
	return m.parseConfig(data)
}

// parseConfig parses YAML configuration data on top of the defaults, so a
// file only needs the keys it changes
func (m *Manager) parseConfig(data []byte) (*Config, error) {
	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.Logging.Level = strings.ToUpper(config.Logging.Level)
	return config, nil
}

func regionFromEnv() string {
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region
	}
	return "us-east-1"
}

// GetDefaultConfig returns the configuration used when no file is given
func GetDefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			DataDir:            "data",
			Pattern:            "*_arxiv_papers.csv",
			SubcategoryPattern: "25[0-9][0-9]_arxiv_papers.csv",
		},
		Sampling: SamplingConfig{
			SampleSize: sampler.DefaultSampleSize,
			Seed:       sampler.DefaultSeed,
		},
		Output: OutputConfig{
			SamplesDir:     "samples",
			SubcategoryDir: "sample_outputs",
		},
		Digest: DigestConfig{
			ArticlesDir: "articles",
			MaxArticles: 16,
			OutputFile:  "previous_articles.md",
		},
		AWS: AWSConfig{
			Region: "us-east-1",
			S3: S3Config{
				SamplesPrefix: "weekly-samples",
			},
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}
