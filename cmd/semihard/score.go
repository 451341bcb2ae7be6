package main

import (
	"errors"

	"github.com/FlavioCFOliveira/semihard/internal/config"
	"github.com/FlavioCFOliveira/semihard/internal/dataset"
	"github.com/FlavioCFOliveira/semihard/internal/loss"
	"github.com/spf13/cobra"
)

// ScoreResult is the JSON output of the score command.
type ScoreResult struct {
	File      string         `json:"file"`
	Batch     int            `json:"batch"`
	Dim       int            `json:"dim"`
	Margin    float64        `json:"margin"`
	Reduction loss.Reduction `json:"reduction"`
	Loss      float64        `json:"loss"`
	Sum       float64        `json:"sum"`
	Count     int            `json:"count"`
	Triplets  []loss.Triplet `json:"triplets,omitempty"`
}

func newScoreCmd(root *rootOptions) *cobra.Command {
	var (
		labelCol     int
		hasHeader    bool
		listTriplets bool
	)

	cmd := &cobra.Command{
		Use:   "score FILE",
		Short: "Compute the loss for a CSV batch of labelled embeddings",
		Long: `Compute the loss for a CSV file with one sample per row.

One column holds the integer label (--label-col); every other column is an
embedding coordinate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(cmd, nil)
			if err != nil {
				return err
			}

			batch, err := dataset.LoadCSVFile(args[0], labelCol, hasHeader)
			if err != nil {
				return dataError(err)
			}
			log = log.WithBatch(batch.Len(), batch.Dim()).WithMargin(cfg.Loss.Margin, cfg.Loss.Reduction)

			res, err := cfg.TripletLoss().Mine(batch.Embeddings, batch.Labels)
			if err != nil {
				if errors.Is(err, loss.ErrDimensionMismatch) || errors.Is(err, loss.ErrEmptyEmbedding) {
					return dataError(err)
				}
				return configError(err)
			}
			log.Debug("mined", "triplets", res.Count, "sum", res.Sum)

			out := scoreResult(args[0], batch, cfg, res)
			if listTriplets {
				out.Triplets = res.Triplets
			}
			return outputJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().IntVar(&labelCol, "label-col", 0, "Index of the label column")
	cmd.Flags().BoolVar(&hasHeader, "header", false, "Skip the first row")
	cmd.Flags().BoolVar(&listTriplets, "triplets", false, "Include every contributing triplet in the output")
	return cmd
}

func scoreResult(file string, batch *dataset.Batch, cfg *config.Config, res loss.Result) ScoreResult {
	return ScoreResult{
		File:      file,
		Batch:     batch.Len(),
		Dim:       batch.Dim(),
		Margin:    cfg.Loss.Margin,
		Reduction: cfg.Loss.Reduction,
		Loss:      res.Loss,
		Sum:       res.Sum,
		Count:     res.Count,
	}
}
