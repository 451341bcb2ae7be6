package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/FlavioCFOliveira/semihard/internal/smoke"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestScore(t *testing.T) {
	path := writeFile(t, "batch.csv", "label,x\n0,0.0\n0,1.0\n1,1.05\n")

	out, err := run(t, "score", path, "--header", "--margin", "0.5", "--triplets")
	require.NoError(t, err)

	var res ScoreResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.Batch)
	assert.Equal(t, 1, res.Dim)
	assert.Equal(t, 0.5, res.Margin)
	assert.InDelta(t, 0.45, res.Loss, 1e-9)
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Triplets, 1)
	assert.Equal(t, 2, res.Triplets[0].Negative)
	assert.Contains(t, out, `"reduction": "mean"`)
}

func TestScoreNoTriplets(t *testing.T) {
	path := writeFile(t, "batch.csv", "0.0,0\n1.0,0\n5.0,1\n5.2,1\n")

	out, err := run(t, "score", path, "--label-col", "1", "--reduction", "sum")
	require.NoError(t, err)

	var res ScoreResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 0.0, res.Loss)
	assert.Zero(t, res.Count)
	assert.Empty(t, res.Triplets)
}

func TestScoreErrors(t *testing.T) {
	good := writeFile(t, "good.csv", "0,1\n1,2\n")
	bad := writeFile(t, "bad.csv", "0,abc\n")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"MissingArg", []string{"score"}, ExitError},
		{"MissingFile", []string{"score", filepath.Join(t.TempDir(), "none.csv")}, ExitDataError},
		{"BadData", []string{"score", bad}, ExitDataError},
		{"ZeroMargin", []string{"score", good, "--margin", "0"}, ExitConfigError},
		{"BadReduction", []string{"score", good, "--reduction", "max"}, ExitConfigError},
		{"BadLogFormat", []string{"score", good, "--log-format", "xml"}, ExitConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, exitCode(err))
		})
	}
}

func TestScoreConfigFile(t *testing.T) {
	cfg := writeFile(t, "semihard.yml", "loss:\n  margin: 0.5\n  reduction: sum\n")
	path := writeFile(t, "batch.csv", "0,0.0\n0,1.0\n1,1.05\n")

	out, err := run(t, "score", path, "--config", cfg)
	require.NoError(t, err)

	var res ScoreResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 0.5, res.Margin)
	assert.Contains(t, out, `"reduction": "sum"`)
	assert.InDelta(t, 0.45, res.Sum, 1e-9)

	_, err = run(t, "score", path, "--config", filepath.Join(t.TempDir(), "none.yml"))
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestSmoke(t *testing.T) {
	out, err := run(t, "smoke", "--batch", "40", "--dim", "4", "--classes", "4", "--steps", "2", "--margin", "1", "--log-level", "error")
	require.NoError(t, err)

	var report smoke.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 40, report.Batch)
	assert.Equal(t, 4, report.Dim)
	assert.Len(t, report.Steps, 2)
}

func TestSmokeInvalidFlags(t *testing.T) {
	_, err := run(t, "smoke", "--dim", "0")
	assert.Equal(t, ExitConfigError, exitCode(err))

	_, err = run(t, "smoke", "--optimizer", "lbfgs")
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitError, exitCode(errors.New("boom")))
	assert.Equal(t, ExitDataError, exitCode(dataError(errors.New("boom"))))
	assert.Equal(t, ExitConfigError, exitCode(configError(errors.New("boom"))))
}
