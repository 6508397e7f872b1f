package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-digest/shared/config"
	"paper-digest/weekly-extractor/extractor"
)

const novemberCSV = "paper_id,submitted_on,abstract,subcategory\n" +
	"2511.00001,2025-11-09,Before the week,cs.LG\n" +
	"2511.00002,2025-11-10,First day,cs.LG\n" +
	"2511.00003,2025-11-14,Friday paper,cs.CL\n" +
	"2511.00004,2025-11-16,Last day,cs.AI\n" +
	"2511.00005,2025-11-17,After the week,cs.AI\n"

// isolate clears the variables that would redirect configuration or publishing
func isolate(t *testing.T) {
	for _, key := range []string{
		"CONFIG_BUCKET", "CONFIG_KEY", "DATA_DIR", "CORPUS_BUCKET", "SAMPLES_DIR",
		"SAMPLES_BUCKET", "SAMPLES_TABLE", "SAMPLE_SIZE", "SAMPLE_SEED", "DEDUPLICATE",
	} {
		t.Setenv(key, "")
	}
}

func setupData(t *testing.T) (dataDir, samplesDir string) {
	isolate(t)
	dataDir = t.TempDir()
	samplesDir = filepath.Join(t.TempDir(), "samples")
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "2511_arxiv_papers.csv"), []byte(novemberCSV), 0o644))
	return dataDir, samplesDir
}

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecute_ExplicitWeek(t *testing.T) {
	dataDir, samplesDir := setupData(t)

	code, stdout, _ := run("2025WK46", "--data-dir", dataDir, "--samples-dir", samplesDir)

	require.Equal(t, 0, code)
	data, err := os.ReadFile(filepath.Join(samplesDir, "2025WK46.csv"))
	require.NoError(t, err)
	assert.Equal(t, "paper_id,abstract\n"+
		"2511.00002,First day\n"+
		"2511.00003,Friday paper\n"+
		"2511.00004,Last day\n", string(data))
	assert.Contains(t, stdout, "Week: 2025WK46 (10-Nov-25 to 16-Nov-25)")
}

func TestExecute_SampleSizeFlag(t *testing.T) {
	dataDir, samplesDir := setupData(t)

	code, stdout, _ := run("2025wk46", "--data-dir", dataDir, "--samples-dir", samplesDir, "-n", "2", "--seed", "7")

	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Randomly sampled 2 papers from 3 total")
}

func TestExecute_ConfigFile(t *testing.T) {
	dataDir, samplesDir := setupData(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"corpus:\n  data_dir: \""+dataDir+"\"\n"+
			"output:\n  samples_dir: \""+samplesDir+"\"\n"+
			"sampling:\n  sample_size: 1\n"), 0o644))

	code, _, _ := run("2025WK46", "--config", configPath)

	require.Equal(t, 0, code)
	data, err := os.ReadFile(filepath.Join(samplesDir, "2025WK46.csv"))
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
}

func TestExecute_InvalidWeek(t *testing.T) {
	dataDir, samplesDir := setupData(t)

	code, _, stderr := run("2025WK54", "--data-dir", dataDir, "--samples-dir", samplesDir)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid week")
	assert.NoDirExists(t, samplesDir)
}

func TestExecute_EmptyWeekExitsCleanly(t *testing.T) {
	dataDir, samplesDir := setupData(t)

	code, stdout, _ := run("2025WK44", "--data-dir", dataDir, "--samples-dir", samplesDir)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "No papers found for the specified week")
	assert.NoFileExists(t, filepath.Join(samplesDir, "2025WK44.csv"))
}

func TestExecute_NoInputFiles(t *testing.T) {
	isolate(t)

	code, _, stderr := run("2025WK46", "--data-dir", t.TempDir())

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no CSV files found")
}

func TestExecute_TooManyArgs(t *testing.T) {
	isolate(t)

	code, _, _ := run("2025WK46", "2025WK47")

	assert.Equal(t, 1, code)
}

func TestExecute_RejectsNonPositiveSampleSize(t *testing.T) {
	dataDir, samplesDir := setupData(t)

	code, _, stderr := run("2025WK46", "--data-dir", dataDir, "--samples-dir", samplesDir, "--sample-size", "0")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "sample_size")
}

func TestHandleLambda(t *testing.T) {
	dataDir, samplesDir := setupData(t)
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("SAMPLES_DIR", samplesDir)

	result, err := handleLambda(context.Background(), Event{Week: "2025WK46"})

	require.NoError(t, err)
	assert.Equal(t, extractor.StatusSuccess, result.Status)
	assert.Equal(t, 3, result.SampledPapers)
	assert.FileExists(t, filepath.Join(samplesDir, "2025WK46.csv"))
}

func TestHandleLambda_EmptyWeek(t *testing.T) {
	dataDir, samplesDir := setupData(t)
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("SAMPLES_DIR", samplesDir)

	result, err := handleLambda(context.Background(), Event{Week: "2025WK40"})

	require.NoError(t, err)
	assert.Equal(t, extractor.StatusEmpty, result.Status)
}

func TestHandleLambda_InvalidWeek(t *testing.T) {
	dataDir, _ := setupData(t)
	t.Setenv("DATA_DIR", dataDir)

	result, err := handleLambda(context.Background(), Event{Week: "25WK46"})

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestUseTempSamplesDir(t *testing.T) {
	unset := func(string) (string, bool) { return "", false }

	cfg := config.GetDefaultConfig()
	useTempSamplesDir(cfg, unset)
	assert.Equal(t, filepath.Join(os.TempDir(), "samples"), cfg.Output.SamplesDir)

	cfg = config.GetDefaultConfig()
	useTempSamplesDir(cfg, func(key string) (string, bool) {
		if key == "SAMPLES_DIR" {
			return "out", true
		}
		return "", false
	})
	assert.Equal(t, "samples", cfg.Output.SamplesDir)

	cfg = config.GetDefaultConfig()
	cfg.Output.SamplesDir = "/mnt/efs/samples"
	useTempSamplesDir(cfg, unset)
	assert.Equal(t, "/mnt/efs/samples", cfg.Output.SamplesDir)
}

func TestHandleLambda_DefaultSamplesDirIsWritable(t *testing.T) {
	dataDir, _ := setupData(t)
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	t.Setenv("DATA_DIR", dataDir)

	result, err := handleLambda(context.Background(), Event{Week: "2025WK46"})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "samples", "2025WK46.csv"), result.OutputPath)
	assert.FileExists(t, result.OutputPath)
}
