package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/config"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/bootstrap"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/artifact"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/dataset"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/service"
)

func cleanOptions(cfg *config.Config) dataset.CleanOptions {
	opts := dataset.DefaultCleanOptions()
	opts.PriceCeiling = cfg.Training.PriceCeiling
	return opts
}

func runClean(cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	in := fs.String("in", cfg.Training.DatasetPath, "raw listings CSV")
	out := fs.String("out", cfg.Training.CleanedPath, "cleaned CSV to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("-out is required")
	}

	raw, err := dataset.ReadRawFile(*in)
	if err != nil {
		return err
	}
	ds := dataset.Clean(raw, cleanOptions(cfg))
	if err := dataset.WriteCSVFile(*out, ds); err != nil {
		return err
	}

	logger.Info("dataset cleaned",
		zap.String("in", *in),
		zap.String("out", *out),
		zap.Int("raw_rows", len(raw)),
		zap.Int("clean_rows", len(ds)),
	)
	return nil
}

func runTrain(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	data := fs.String("data", cfg.Training.DatasetPath, "raw or cleaned listings CSV")
	out := fs.String("out", cfg.Training.ArtifactPath, "artifact to write")
	trials := fs.Int("trials", cfg.Training.Trials, "number of split seeds to try")
	ratio := fs.Float64("test-ratio", cfg.Training.TestRatio, "held-out share of the dataset")
	cleaned := fs.String("cleaned", cfg.Training.CleanedPath, "also write the cleaned dataset here")
	record := fs.Bool("record", cfg.Database.Enabled(), "record the run in the training run registry")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var runs service.RunRecorder
	if *record {
		db, repo, err := bootstrap.OpenRegistry(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open registry: %w", err)
		}
		if db != nil {
			defer db.Close()
			runs = repo
		}
	}

	svc := service.NewTrainingService(runs, cleanOptions(cfg), logger)
	res, err := svc.Train(ctx, service.TrainRequest{
		DatasetPath:       *data,
		ArtifactPath:      *out,
		TestRatio:         *ratio,
		Trials:            *trials,
		CleanedOutputPath: *cleaned,
	})
	if err != nil {
		return err
	}

	logger.Info("training finished",
		zap.String("model_version", res.Pipeline.Version),
		zap.Int64("seed", res.Pipeline.Seed),
		zap.Float64("r2", res.Pipeline.Score),
		zap.String("artifact", *out),
	)
	return nil
}

func runPredict(w io.Writer, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	model := fs.String("model", cfg.Training.ArtifactPath, "artifact to load")
	var q domain.Query
	fs.StringVar(&q.Name, "name", "", "car model name, e.g. \"Hyundai Santro Xing\"")
	fs.StringVar(&q.Company, "company", "", "manufacturer")
	fs.StringVar(&q.Year, "year", "", "year of purchase")
	fs.StringVar(&q.KmsDriven, "kms", "", "kilometres driven")
	fs.StringVar(&q.FuelType, "fuel", "", "fuel type")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := artifact.Load(*model)
	if err != nil {
		return err
	}
	price, err := p.Predict(q)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"price":         price,
		"model_version": p.Version,
	})
}
