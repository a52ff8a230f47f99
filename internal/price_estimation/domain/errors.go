package domain

import "errors"

var (
	ErrEmptyDataset     = errors.New("dataset is empty")
	ErrMissingColumn    = errors.New("required column missing")
	ErrInsufficientRows = errors.New("not enough rows to split into train and test subsets")
	ErrInvalidTestRatio = errors.New("test ratio must be between 0 and 1 (exclusive)")
	ErrInvalidTrials    = errors.New("number of trials must be at least 1")
	ErrInvalidNumber    = errors.New("invalid numeric value")
	ErrBadArtifact      = errors.New("not a car price pipeline artifact")
	ErrModelNotLoaded   = errors.New("no pipeline loaded")
	ErrRunNotFound      = errors.New("training run not found")
)
