package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/config"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/dataset"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		Training: config.TrainingConfig{
			DatasetPath:  filepath.Join(dir, "quikr_car.csv"),
			ArtifactPath: filepath.Join(dir, "pipeline.cpp"),
			TestRatio:    0.2,
			Trials:       3,
			PriceCeiling: 6000000,
		},
	}
}

func writeListings(t *testing.T, path string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("name,company,year,Price,kms_driven,fuel_type\n")
	cars := []struct{ name, company string }{
		{"Hyundai Santro Xing XO", "Hyundai"},
		{"Maruti Suzuki Swift Dzire", "Maruti"},
		{"Tata Indica V2 eLS", "Tata"},
	}
	for i := 0; i < 24; i++ {
		c := cars[i%len(cars)]
		year := 2005 + i%12
		fmt.Fprintf(&b, "%s,%s,%d,\"%d\",\"%d kms\",%s\n",
			c.name, c.company, year, 80000+(i%3)*60000+(year-2005)*15000, 10000+i*1000,
			[]string{"Petrol", "Diesel"}[i%2])
	}
	b.WriteString("Hyundai Verna Fluidic 1.6,Hyundai,2014,Ask For Price,\"30,000 kms\",Diesel\n")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestRunClean(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeListings(t, cfg.Training.DatasetPath)
	out := filepath.Join(dir, "cleaned.csv")

	require.NoError(t, runClean(cfg, zap.NewNop(), []string{"-out", out}))

	ds, err := dataset.LoadClean(out, dataset.DefaultCleanOptions())
	require.NoError(t, err)
	assert.Len(t, ds, 24)
	assert.Equal(t, "Hyundai Santro Xing", ds[0].Name)

	assert.Error(t, runClean(cfg, zap.NewNop(), nil), "-out has no default here")
}

func TestRunTrainThenPredict(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeListings(t, cfg.Training.DatasetPath)

	require.NoError(t, runTrain(context.Background(), cfg, zap.NewNop(), []string{"-trials", "2"}))
	_, err := os.Stat(cfg.Training.ArtifactPath)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runPredict(&out, cfg, []string{
		"-name", "Hyundai Santro Xing",
		"-company", "Hyundai",
		"-year", "2007",
		"-kms", "45000",
		"-fuel", "Petrol",
	}))

	var resp struct {
		Price        float64 `json:"price"`
		ModelVersion string  `json:"model_version"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.NotEmpty(t, resp.ModelVersion)
	assert.NotZero(t, resp.Price)

	err = runPredict(&out, cfg, []string{"-year", "soon", "-kms", "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidNumber)
}

func TestRunTrain_BadFlags(t *testing.T) {
	cfg := testConfig(t.TempDir())
	writeListings(t, cfg.Training.DatasetPath)
	assert.Error(t, runTrain(context.Background(), cfg, zap.NewNop(), []string{"-trials", "many"}))
	assert.ErrorIs(t, runTrain(context.Background(), cfg, zap.NewNop(), []string{"-test-ratio", "1.5"}), domain.ErrInvalidTestRatio)
}
