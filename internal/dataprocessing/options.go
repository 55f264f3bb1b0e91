package dataprocessing

import (
	"github.com/go-playground/validator/v10"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/config"
	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
)

// UnseenStorePolicy decides Sales_mean/Sales_std for stores without a training distribution
type UnseenStorePolicy string

const (
	// UnseenGlobal uses the training-wide mean and standard deviation
	UnseenGlobal UnseenStorePolicy = "global"
	// UnseenZero fills both columns with 0
	UnseenZero UnseenStorePolicy = "zero"
	// UnseenNull leaves both columns missing
	UnseenNull UnseenStorePolicy = "null"
)

const (
	// DefaultTrainExcludeYear keeps the last training year out of the ending flag
	DefaultTrainExcludeYear = 2015
	// DefaultTestExcludeYear effectively disables the year filter for test data
	DefaultTestExcludeYear = 2050
	// DefaultMissingCompetitionYear places unknown competition openings in the future
	DefaultMissingCompetitionYear = 2050
)

// PipelineOptions tunes the feature pipeline
type PipelineOptions struct {
	TrainExcludeYear        int               `validate:"min=1,max=9999"`
	TestExcludeYear         int               `validate:"min=1,max=9999"`
	HolidayEndingFromMonth  int               `validate:"min=1,max=12"`
	HolidayEndingToMonth    int               `validate:"min=1,max=12,gtefield=HolidayEndingFromMonth"`
	MissingCompetitionYear  int               `validate:"min=1,max=9999"`
	MissingCompetitionMonth int               `validate:"min=1,max=12"`
	UnseenStorePolicy       UnseenStorePolicy `validate:"oneof=global zero null"`
}

// DefaultPipelineOptions returns the options of the reference feature set
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		TrainExcludeYear:        DefaultTrainExcludeYear,
		TestExcludeYear:         DefaultTestExcludeYear,
		HolidayEndingFromMonth:  7,
		HolidayEndingToMonth:    9,
		MissingCompetitionYear:  DefaultMissingCompetitionYear,
		MissingCompetitionMonth: 1,
		UnseenStorePolicy:       UnseenGlobal,
	}
}

// OptionsFromConfig maps the pipeline section of the application config
func OptionsFromConfig(cfg config.PipelineConfig) PipelineOptions {
	return PipelineOptions{
		TrainExcludeYear:        cfg.TrainExcludeYear,
		TestExcludeYear:         cfg.TestExcludeYear,
		HolidayEndingFromMonth:  cfg.HolidayEndingFromMonth,
		HolidayEndingToMonth:    cfg.HolidayEndingToMonth,
		MissingCompetitionYear:  cfg.MissingCompetitionYear,
		MissingCompetitionMonth: cfg.MissingCompetitionMonth,
		UnseenStorePolicy:       UnseenStorePolicy(cfg.UnseenStorePolicy),
	}
}

// Validate checks the option ranges
func (o PipelineOptions) Validate() error {
	if err := validator.New().Struct(o); err != nil {
		return apperrors.NewAppValidationError("invalid pipeline options: " + err.Error())
	}
	return nil
}
