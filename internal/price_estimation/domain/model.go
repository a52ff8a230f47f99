package domain

import "time"

// Column headers of the input table. Matching is case-sensitive.
const (
	ColName      = "name"
	ColCompany   = "company"
	ColYear      = "year"
	ColPrice     = "Price"
	ColKmsDriven = "kms_driven"
	ColFuelType  = "fuel_type"
)

// RequiredColumns lists the headers every input table must carry, in the
// order the cleaned table is written back out.
var RequiredColumns = []string{ColName, ColCompany, ColYear, ColPrice, ColKmsDriven, ColFuelType}

// RawRecord is one row of the input table exactly as read, before cleaning.
type RawRecord struct {
	Name      string
	Company   string
	Year      string
	Price     string
	KmsDriven string
	FuelType  string
}

// Record is a cleaned listing. Every field is present and the numeric
// fields hold parsed integers.
type Record struct {
	Name      string `json:"name"`
	Company   string `json:"company"`
	Year      int    `json:"year"`
	KmsDriven int    `json:"kms_driven"`
	FuelType  string `json:"fuel_type"`
	Price     int    `json:"price"`
}

// Query is a single prediction request. Numeric fields stay textual until the
// pipeline parses them so that bad input can be reported instead of guessed.
type Query struct {
	Name      string `json:"name"`
	Company   string `json:"company"`
	Year      string `json:"year"`
	KmsDriven string `json:"kms_driven"`
	FuelType  string `json:"fuel_type"`
}

// TrainingRun records one completed training job.
type TrainingRun struct {
	ID           string                 `json:"id"`
	ModelVersion string                 `json:"model_version"`
	Seed         int64                  `json:"seed"`
	Score        float64                `json:"score"`
	Trials       int                    `json:"trials"`
	TestRatio    float64                `json:"test_ratio"`
	TrainRows    int                    `json:"train_rows"`
	TestRows     int                    `json:"test_rows"`
	ArtifactPath string                 `json:"artifact_path"`
	Metrics      map[string]interface{} `json:"metrics,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}
