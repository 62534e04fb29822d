// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/z5labs/persistarg"
)

type trainConfig struct {
	BatchSize  int     `arg:"batch_size"`
	LearnRate  float64 `arg:"learning_rate"`
	ValData    string  `arg:"val_data"`
	TrainData  string  `arg:"train_data"`
	ResumeFrom string  `arg:"resume_from"`
	Verbose    bool    `arg:"verbose"`
	Config     string  `arg:"config"`
}

func newParser() (*persistarg.Parser, error) {
	p := persistarg.New(
		persistarg.Name("trainer"),
		persistarg.LogHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{})),
	)

	specs := []persistarg.ArgumentSpec{
		{Name: "batch-size", Shorthand: "b", Type: persistarg.Int, Required: true, Usage: "Number of samples per batch."},
		{Name: "learning-rate", Type: persistarg.Float64, Default: 0.001, Usage: "Optimizer learning rate."},
		{Name: "val-data", Usage: "Path to the validation data."},
		{Name: "verbose", Shorthand: "v", Action: persistarg.StoreTrue, Usage: "Log every step."},
	}
	for _, spec := range specs {
		err := p.AddArgument(spec)
		if err != nil {
			return nil, err
		}
	}

	source := p.BeginMutexGroup(true)
	err := source.AddArgument(persistarg.ArgumentSpec{Name: "train-data", Usage: "Path to the training data."})
	if err != nil {
		return nil, err
	}
	err = source.AddArgument(persistarg.ArgumentSpec{Name: "resume-from", Usage: "Checkpoint to resume from."})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func train(ctx context.Context, args *persistarg.Args) error {
	var cfg trainConfig
	err := args.Decode(&cfg)
	if err != nil {
		return err
	}

	fmt.Printf("training with batch size %d and learning rate %g\n", cfg.BatchSize, cfg.LearnRate)
	fmt.Printf("rerun with: trainer --config %s\n", cfg.Config)
	return nil
}

func run() int {
	p, err := newParser()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err = p.Command(train).ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trainer: error: %s\n", err)
	}
	return persistarg.ExitCode(err)
}

func main() {
	os.Exit(run())
}
