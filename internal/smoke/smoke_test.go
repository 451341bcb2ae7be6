package smoke

import (
	"context"
	"testing"

	"github.com/FlavioCFOliveira/semihard/internal/config"
	"github.com/FlavioCFOliveira/semihard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Loss.Margin = 1
	cfg.Smoke.Batch = 60
	cfg.Smoke.Dim = 6
	cfg.Smoke.Classes = 6
	cfg.Smoke.Steps = 3
	return cfg
}

func TestRun(t *testing.T) {
	report, err := Run(context.Background(), smallConfig(), logging.Noop())
	require.NoError(t, err)

	assert.Equal(t, 60, report.Batch)
	assert.Equal(t, 6, report.Dim)
	require.Len(t, report.Steps, 3)
	for i, s := range report.Steps {
		assert.Equal(t, i, s.Step)
		assert.GreaterOrEqual(t, s.Loss, 0.0)
		if s.Triplets > 0 {
			assert.Positive(t, s.GradNorm)
		}
	}
	assert.GreaterOrEqual(t, report.FinalLoss, 0.0)
}

func TestRunDeterministic(t *testing.T) {
	a, err := Run(context.Background(), smallConfig(), logging.Noop())
	require.NoError(t, err)
	b, err := Run(context.Background(), smallConfig(), logging.Noop())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunAdam(t *testing.T) {
	cfg := smallConfig()
	cfg.Smoke.Optimizer = "adam"
	report, err := Run(context.Background(), cfg, logging.Noop())
	require.NoError(t, err)
	assert.Len(t, report.Steps, 3)
}

func TestRunEmptyBatch(t *testing.T) {
	cfg := smallConfig()
	cfg.Smoke.Batch = 0
	report, err := Run(context.Background(), cfg, logging.Noop())
	require.NoError(t, err)
	assert.Empty(t, report.Steps)
	assert.Equal(t, 0.0, report.FinalLoss)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, smallConfig(), logging.Noop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Loss.Margin = -1
	_, err := Run(context.Background(), cfg, logging.Noop())
	assert.Error(t, err)
}

func TestNorm(t *testing.T) {
	assert.Equal(t, 0.0, norm(&mat.Dense{}))
	assert.InDelta(t, 5.0, norm(mat.NewDense(1, 2, []float64{3, 4})), 1e-12)
}
