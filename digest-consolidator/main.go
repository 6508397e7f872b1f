package main

import (
	"context"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"paper-digest/digest-consolidator/consolidator"
	"paper-digest/shared/config"
	"paper-digest/shared/logger"
)

const serviceName = "digest-consolidator"

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
		configPath  string
		articlesDir string
		maxArticles int
		outputFile  string
	)

	cmd := &cobra.Command{
		Use:          "digest-consolidator",
		Short:        "Merge the most recent weekly digests into previous_articles.md",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			manager, err := config.NewManager()
			if err != nil {
				return logger.WrapError(err, logger.ErrorTypeConfig, "failed to create config manager")
			}
			cfg, err := manager.Load(ctx, configPath)
			if err != nil {
				return logger.WrapError(err, logger.ErrorTypeConfig, "failed to load configuration")
			}

			flags := cmd.Flags()
			if flags.Changed("articles-dir") {
				cfg.Digest.ArticlesDir = articlesDir
			}
			if flags.Changed("max-articles") {
				cfg.Digest.MaxArticles = maxArticles
			}
			if flags.Changed("output") {
				cfg.Digest.OutputFile = outputFile
			}
			if err := cfg.Validate(); err != nil {
				return logger.WrapError(err, logger.ErrorTypeConfig, "invalid configuration")
			}

			appLogger := logger.New(serviceName).WithOutput(stderr).WithLevel(logger.ParseLevel(cfg.Logging.Level))
			_, err = consolidator.New(appLogger, stdout).Run(ctx, consolidator.Options{
				ArticlesDir: cfg.Digest.ArticlesDir,
				MaxArticles: cfg.Digest.MaxArticles,
				OutputFile:  cfg.Digest.OutputFile,
			})
			return err
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	f.StringVar(&articlesDir, "articles-dir", "", "Directory holding <yy>Wk<n>_articles.md files (default articles)")
	f.IntVar(&maxArticles, "max-articles", 0, "Number of most recent articles to keep (default 16)")
	f.StringVarP(&outputFile, "output", "o", "", "Output file name inside the articles directory (default previous_articles.md)")

	return cmd
}
