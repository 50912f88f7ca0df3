// Command claimfit trains a random-forest regressor on a claims dataset and prints its test RMSE.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/suteetoe/claimdesk/internal/claimmodel"
	"github.com/suteetoe/claimdesk/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := claimmodel.DefaultOptions()
	var (
		dataPath    string
		categorical string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:           "claimfit",
		Short:         "Fit a claim-amount regressor and report its RMSE",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.InitLogger(&logger.LogConfig{Level: logLevel, ServiceName: "claimfit"}); err != nil {
				return err
			}
			log := logger.GetLogger()
			defer log.Sync()

			opts.Categorical = splitList(categorical)
			opts.Forest.Seed = opts.Seed

			table, err := claimmodel.LoadFile(dataPath)
			if err != nil {
				return err
			}
			log.Info("Dataset loaded", zap.String("path", dataPath), zap.Int("rows", len(table.Rows)))

			res, err := claimmodel.Run(cmd.Context(), log, table, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Root Mean Squared Error (RMSE) =", res.RMSE)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataPath, "data", "", "dataset file (.csv or .xlsx)")
	f.StringVar(&opts.Target, "target", opts.Target, "target column")
	f.StringVar(&categorical, "categorical", strings.Join(opts.Categorical, ","), "comma-separated categorical columns")
	f.Float64Var(&opts.TestFraction, "test-size", opts.TestFraction, "fraction of rows held out for testing")
	f.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed for the split and the forest")
	f.IntVar(&opts.Forest.Trees, "trees", opts.Forest.Trees, "number of trees")
	f.IntVar(&opts.Forest.MaxDepth, "max-depth", opts.Forest.MaxDepth, "maximum tree depth")
	f.StringVar(&logLevel, "log-level", "warn", "log level")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
