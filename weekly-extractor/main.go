package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"paper-digest/shared/config"
	"paper-digest/shared/corpus"
	"paper-digest/shared/dedup"
	"paper-digest/shared/dynamodb"
	"paper-digest/shared/logger"
	"paper-digest/shared/s3"
	"paper-digest/weekly-extractor/extractor"
)

const serviceName = "weekly-extractor"

// Event is the Lambda payload. An empty week selects the last completed week.
type Event struct {
	Week string `json:"week"`
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(handleLambda)
		return
	}

	// A missing .env is fine; the environment and flags still apply
	_ = godotenv.Load()
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func handleLambda(ctx context.Context, event Event) (result *extractor.Result, err error) {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		ctx = logger.ContextWithRequestID(ctx, lc.AwsRequestID)
	}
	appLogger := logger.New(serviceName).WithContext(ctx)
	errorHandler := logger.NewErrorHandler(appLogger)

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, errorHandler.RecoverError(r, "lambda handler")
		}
	}()

	appLogger.Info("Weekly extractor lambda handler started", map[string]interface{}{
		"week": event.Week,
	})

	cfg, err := loadConfig(ctx, "")
	if err != nil {
		return nil, errorHandler.Handle(err, "configuration")
	}

	useTempSamplesDir(cfg, os.LookupEnv)

	// stdout carries the JSON log lines, so the human report is dropped
	result, err = runExtraction(ctx, cfg, event.Week, appLogger, io.Discard)
	if errors.Is(err, extractor.ErrEmptyWeek) {
		return result, nil
	}
	if err != nil {
		return nil, errorHandler.Handle(err, "weekly extraction")
	}
	return result, nil
}

// useTempSamplesDir moves a relative samples directory under the temp dir,
// the only writable path in Lambda. An explicit SAMPLES_DIR is kept.
func useTempSamplesDir(cfg *config.Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("SAMPLES_DIR"); ok && v != "" {
		return
	}
	if filepath.IsAbs(cfg.Output.SamplesDir) {
		return
	}
	cfg.Output.SamplesDir = filepath.Join(os.TempDir(), cfg.Output.SamplesDir)
}

// execute runs the CLI and returns the process exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		configPath string
		dataDir    string
		pattern    string
		samplesDir string
		sampleSize int
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "weekly-extractor [YYYYWKn]",
		Short: "Sample the arXiv papers submitted in one ISO week",
		Long: `Load every monthly arXiv CSV, keep the papers submitted in the target
week (Monday to Sunday), draw a seeded random sample and write
paper_id,abstract to samples/<year>WK<week>.csv.

Without an argument the week of the last Friday is used.

Examples:
  weekly-extractor                   # Last completed week
  weekly-extractor 2025WK46          # Explicit ISO week
  weekly-extractor 2025wk44 --sample-size 500 --seed 7`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			appLogger := logger.New(serviceName).WithOutput(stderr)

			cfg, err := loadConfig(ctx, configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("data-dir") {
				cfg.Corpus.DataDir = dataDir
				cfg.Corpus.S3Bucket = ""
			}
			if flags.Changed("pattern") {
				cfg.Corpus.Pattern = pattern
			}
			if flags.Changed("samples-dir") {
				cfg.Output.SamplesDir = samplesDir
			}
			if flags.Changed("sample-size") {
				cfg.Sampling.SampleSize = sampleSize
			}
			if flags.Changed("seed") {
				cfg.Sampling.Seed = seed
			}
			if err := cfg.Validate(); err != nil {
				return logger.WrapError(err, logger.ErrorTypeConfig, "invalid configuration")
			}

			weekArg := ""
			if len(args) == 1 {
				weekArg = args[0]
			}

			_, err = runExtraction(ctx, cfg, weekArg, appLogger, stdout)
			if errors.Is(err, extractor.ErrEmptyWeek) {
				return nil
			}
			return err
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	f.StringVar(&dataDir, "data-dir", "", "Directory holding the monthly CSV files (default data)")
	f.StringVar(&pattern, "pattern", "", "Glob for corpus files (default *_arxiv_papers.csv)")
	f.StringVar(&samplesDir, "samples-dir", "", "Output directory for weekly samples (default samples)")
	f.IntVarP(&sampleSize, "sample-size", "n", 0, "Papers to sample (default 3850)")
	f.Uint64Var(&seed, "seed", 0, "Random seed (default 42)")

	return cmd
}

func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	manager, err := config.NewManager()
	if err != nil {
		return nil, logger.WrapError(err, logger.ErrorTypeConfig, "failed to create config manager")
	}
	cfg, err := manager.Load(ctx, path)
	if err != nil {
		return nil, logger.WrapError(err, logger.ErrorTypeConfig, "failed to load configuration")
	}
	return cfg, nil
}

// runExtraction wires the extractor from configuration and runs it
func runExtraction(ctx context.Context, cfg *config.Config, weekArg string, appLogger *logger.Logger, out io.Writer) (*extractor.Result, error) {
	appLogger = appLogger.WithLevel(logger.ParseLevel(cfg.Logging.Level))

	source, err := cfg.CorpusSource()
	if err != nil {
		return nil, logger.WrapError(err, logger.ErrorTypeS3, "failed to configure corpus source")
	}

	var deduplicator extractor.Deduplicator
	if cfg.Corpus.Deduplicate {
		deduplicator = dedup.NewDeduplicator(appLogger)
	}

	var (
		publisher extractor.SamplePublisher
		store     extractor.SampleStore
	)
	if cfg.PublishToS3() || cfg.PublishToDynamoDB() {
		sess, err := cfg.AWS.NewSession()
		if err != nil {
			return nil, logger.WrapError(err, logger.ErrorTypeConfig, "failed to create AWS session")
		}
		if cfg.PublishToS3() {
			publisher = s3.NewUploader(sess, cfg.AWS.S3.SamplesBucket, cfg.AWS.S3.SamplesPrefix)
		}
		if cfg.PublishToDynamoDB() {
			store = dynamodb.NewWriter(sess, cfg.AWS.DynamoDB.SamplesTable, appLogger)
		}
	}

	ex := extractor.New(corpus.NewLoader(appLogger), deduplicator, publisher, store, appLogger, out)
	return ex.Run(ctx, weekArg, extractor.Options{
		Source:     source,
		SamplesDir: cfg.Output.SamplesDir,
		SampleSize: cfg.Sampling.SampleSize,
		Seed:       cfg.Sampling.Seed,
	})
}
