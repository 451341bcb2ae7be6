package main

import (
	"github.com/FlavioCFOliveira/semihard/internal/config"
	"github.com/FlavioCFOliveira/semihard/internal/smoke"
	"github.com/spf13/cobra"
)

func newSmokeCmd(root *rootOptions) *cobra.Command {
	var s config.SmokeConfig

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run the loss and its gradient on a random batch",
		Long: `Draw a random labelled batch, pass it through a linear model, compute the
loss and its gradient and apply optimizer steps to the model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			cfg, log, err := root.load(cmd, func(cfg *config.Config) error {
				if flags.Changed("batch") {
					cfg.Smoke.Batch = s.Batch
				}
				if flags.Changed("dim") {
					cfg.Smoke.Dim = s.Dim
				}
				if flags.Changed("classes") {
					cfg.Smoke.Classes = s.Classes
				}
				if flags.Changed("seed") {
					cfg.Smoke.Seed = s.Seed
				}
				if flags.Changed("steps") {
					cfg.Smoke.Steps = s.Steps
				}
				if flags.Changed("optimizer") {
					cfg.Smoke.Optimizer = s.Optimizer
				}
				if flags.Changed("lr") {
					cfg.Smoke.LearningRate = s.LearningRate
				}
				return nil
			})
			if err != nil {
				return err
			}

			report, err := smoke.Run(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			return outputJSON(cmd.OutOrStdout(), report)
		},
	}

	def := config.Default().Smoke
	f := cmd.Flags()
	f.IntVar(&s.Batch, "batch", def.Batch, "Number of samples")
	f.IntVar(&s.Dim, "dim", def.Dim, "Embedding width")
	f.IntVar(&s.Classes, "classes", def.Classes, "Number of distinct labels")
	f.Uint64Var(&s.Seed, "seed", def.Seed, "Random seed")
	f.IntVar(&s.Steps, "steps", def.Steps, "Optimizer steps")
	f.StringVar(&s.Optimizer, "optimizer", def.Optimizer, "Optimizer: sgd or adam")
	f.Float64Var(&s.LearningRate, "lr", def.LearningRate, "Learning rate")
	return cmd
}
