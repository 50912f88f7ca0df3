package claimmodel

import (
	"context"

	"go.uber.org/zap"
)

// Options configures a training run.
type Options struct {
	Target       string
	Categorical  []string
	TestFraction float64
	Seed         int64
	Forest       ForestConfig
}

// DefaultOptions mirror the claim dataset layout: a Provider category and a ClaimAmount target.
func DefaultOptions() Options {
	return Options{
		Target:       "ClaimAmount",
		Categorical:  []string{"Provider"},
		TestFraction: 0.3,
		Seed:         42,
		Forest:       ForestConfig{Trees: DefaultTrees, MaxDepth: DefaultMaxDepth, Seed: 42},
	}
}

type Result struct {
	Features  []string
	TrainRows int
	TestRows  int
	RMSE      float64
	Model     *Forest
}

// Run encodes the table, splits it, fits a forest on the training rows and scores it on the rest.
func Run(ctx context.Context, log *zap.Logger, t *Table, opts Options) (*Result, error) {
	m, err := Encode(t, opts.Target, opts.Categorical)
	if err != nil {
		return nil, err
	}
	train, test, err := Split(m, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, err
	}
	log.Info("Dataset prepared",
		zap.Int("features", len(m.Features)),
		zap.Int("train_rows", len(train.Y)),
		zap.Int("test_rows", len(test.Y)))

	forest, err := Fit(ctx, train, opts.Forest)
	if err != nil {
		return nil, err
	}
	pred, err := forest.PredictAll(test.X)
	if err != nil {
		return nil, err
	}
	rmse, err := RMSE(test.Y, pred)
	if err != nil {
		return nil, err
	}

	return &Result{
		Features:  m.Features,
		TrainRows: len(train.Y),
		TestRows:  len(test.Y),
		RMSE:      rmse,
		Model:     forest,
	}, nil
}
