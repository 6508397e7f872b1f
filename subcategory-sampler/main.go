package main

import (
	"context"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"paper-digest/shared/config"
	"paper-digest/shared/corpus"
	"paper-digest/shared/logger"
	"paper-digest/subcategory-sampler/splitter"
)

const serviceName = "subcategory-sampler"

func main() {
	_ = godotenv.Load()
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

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
		outputDir  string
		sampleSize int
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "subcategory-sampler",
		Short: "Write one seeded paper sample per arXiv subcategory",
		Long: `Load the monthly arXiv CSVs, group papers by subcategory and write
paper_id,abstract samples to sample_outputs/<subcategory>.csv, followed by a
summary table sorted by subcategory size.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			appLogger := logger.New(serviceName).WithOutput(stderr)

			manager, err := config.NewManager()
			if err != nil {
				return logger.WrapError(err, logger.ErrorTypeConfig, "failed to create config manager")
			}
			cfg, err := manager.Load(ctx, configPath)
			if err != nil {
				return logger.WrapError(err, logger.ErrorTypeConfig, "failed to load configuration")
			}

			flags := cmd.Flags()
			if flags.Changed("data-dir") {
				cfg.Corpus.DataDir = dataDir
				cfg.Corpus.S3Bucket = ""
			}
			if flags.Changed("pattern") {
				cfg.Corpus.SubcategoryPattern = pattern
			}
			if flags.Changed("output-dir") {
				cfg.Output.SubcategoryDir = outputDir
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
			appLogger = appLogger.WithLevel(logger.ParseLevel(cfg.Logging.Level))

			source, err := cfg.SourceFor(cfg.Corpus.SubcategoryPattern)
			if err != nil {
				return logger.WrapError(err, logger.ErrorTypeS3, "failed to configure corpus source")
			}

			_, err = splitter.New(corpus.NewLoader(appLogger), appLogger, stdout).Run(ctx, splitter.Options{
				Source:     source,
				OutputDir:  cfg.Output.SubcategoryDir,
				SampleSize: cfg.Sampling.SampleSize,
				Seed:       cfg.Sampling.Seed,
			})
			return err
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	f.StringVar(&dataDir, "data-dir", "", "Directory holding the monthly CSV files (default data)")
	f.StringVar(&pattern, "pattern", "", "Glob for corpus files (default 25[0-9][0-9]_arxiv_papers.csv)")
	f.StringVarP(&outputDir, "output-dir", "o", "", "Directory for per-subcategory samples (default sample_outputs)")
	f.IntVarP(&sampleSize, "sample-size", "n", 0, "Papers to sample per subcategory (default 3850)")
	f.Uint64Var(&seed, "seed", 0, "Random seed (default 42)")

	return cmd
}
