// Package smoke runs the loss end to end on a random batch: random
// embeddings through a linear model, the semi-hard triplet loss, the
// gradient back into the model and a few optimizer steps.
package smoke

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/FlavioCFOliveira/semihard/internal/config"
	"github.com/FlavioCFOliveira/semihard/internal/dataset"
	"github.com/FlavioCFOliveira/semihard/internal/layer"
	"github.com/FlavioCFOliveira/semihard/internal/logging"
	"github.com/FlavioCFOliveira/semihard/internal/opt"
	"gonum.org/v1/gonum/mat"
)

// StepReport describes one optimizer step.
type StepReport struct {
	Step     int     `json:"step"`
	Loss     float64 `json:"loss"`
	Triplets int     `json:"triplets"`
	GradNorm float64 `json:"grad_norm"` // L2 norm of dLoss/dEmbeddings
}

// Report is the outcome of a smoke run.
type Report struct {
	Batch     int          `json:"batch"`
	Dim       int          `json:"dim"`
	Steps     []StepReport `json:"steps"`
	FinalLoss float64      `json:"final_loss"`
}

// Run executes cfg.Smoke.Steps training steps and a final evaluation.
// ctx is checked between steps.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := cfg.Smoke
	tl := cfg.TripletLoss()

	optimizer, ok := opt.New(s.Optimizer, s.LearningRate)
	if !ok {
		return nil, fmt.Errorf("unknown optimizer %q", s.Optimizer)
	}

	batch := dataset.Random(s.Batch, s.Dim, s.Classes, s.Seed)
	model := layer.NewLinear(s.Dim, s.Dim, rand.NewPCG(s.Seed, s.Seed^0x5eed))
	log = log.WithBatch(s.Batch, s.Dim).WithMargin(tl.Margin, tl.Reduction)

	report := &Report{Batch: s.Batch, Dim: s.Dim}
	for step := 0; step < s.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if batch.Len() == 0 {
			break
		}

		out := model.Forward(batch.Embeddings)
		res, grad, err := tl.ForwardBackward(out, batch.Labels)
		if err != nil {
			return report, fmt.Errorf("step %d: %w", step, err)
		}

		model.Backward(grad)
		params := model.Params()
		optimizer.StepInPlace(params, model.Gradients())
		model.SetParams(params)

		sr := StepReport{Step: step, Loss: res.Loss, Triplets: res.Count, GradNorm: norm(grad)}
		report.Steps = append(report.Steps, sr)
		log.Info("step", "step", step, "loss", sr.Loss, "triplets", sr.Triplets, "grad_norm", sr.GradNorm)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	embeddings := batch.Embeddings
	if batch.Len() > 0 {
		embeddings = model.Forward(batch.Embeddings)
	}
	res, err := tl.Mine(embeddings, batch.Labels)
	if err != nil {
		return report, fmt.Errorf("final evaluation: %w", err)
	}
	report.FinalLoss = res.Loss
	log.Info("done", "loss", res.Loss, "triplets", res.Count)
	return report, nil
}

// norm returns the Frobenius norm of m, or 0 for an empty matrix.
func norm(m *mat.Dense) float64 {
	if m.IsEmpty() {
		return 0
	}
	return mat.Norm(m, 2)
}
