package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
)

// EnvPrefix namespaces every environment override, e.g. SALES_LOGGING_LEVEL.
const EnvPrefix = "SALES"

// Config represents the complete application configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Pipeline   PipelineConfig   `yaml:"pipeline" envconfig:"PIPELINE"`
	Evaluation EvaluationConfig `yaml:"evaluation" envconfig:"EVALUATION"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PathsConfig contains file system paths configuration.
// Input files are resolved against DataDir unless absolute.
type PathsConfig struct {
	DataDir        string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	TrainFile      string `yaml:"train_file" envconfig:"TRAIN_FILE" validate:"required"`
	TestFile       string `yaml:"test_file" envconfig:"TEST_FILE" validate:"required"`
	StoreFile      string `yaml:"store_file" envconfig:"STORE_FILE" validate:"required"`
	ReportsDir     string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	SubmissionsDir string `yaml:"submissions_dir" envconfig:"SUBMISSIONS_DIR" validate:"required"`
	LogsDir        string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	DatabaseFile   string `yaml:"database_file" envconfig:"DATABASE_FILE" validate:"required"`
}

// PipelineConfig controls feature construction
type PipelineConfig struct {
	TrainExcludeYear        int    `yaml:"train_exclude_year" envconfig:"TRAIN_EXCLUDE_YEAR" validate:"min=1"`
	TestExcludeYear         int    `yaml:"test_exclude_year" envconfig:"TEST_EXCLUDE_YEAR" validate:"min=1"`
	HolidayEndingFromMonth  int    `yaml:"holiday_ending_from_month" envconfig:"HOLIDAY_ENDING_FROM_MONTH" validate:"min=1,max=12"`
	HolidayEndingToMonth    int    `yaml:"holiday_ending_to_month" envconfig:"HOLIDAY_ENDING_TO_MONTH" validate:"min=1,max=12,gtefield=HolidayEndingFromMonth"`
	MissingCompetitionYear  int    `yaml:"missing_competition_year" envconfig:"MISSING_COMPETITION_YEAR" validate:"min=1,max=9999"`
	MissingCompetitionMonth int    `yaml:"missing_competition_month" envconfig:"MISSING_COMPETITION_MONTH" validate:"min=1,max=12"`
	UnseenStorePolicy       string `yaml:"unseen_store_policy" envconfig:"UNSEEN_STORE_POLICY" validate:"oneof=global zero null"`
	PersistDistributions    bool   `yaml:"persist_distributions" envconfig:"PERSIST_DISTRIBUTIONS"`
	WriteReport             bool   `yaml:"write_report" envconfig:"WRITE_REPORT"`
}

// EvaluationConfig controls cross-validation of the baseline model
type EvaluationConfig struct {
	Folds        int      `yaml:"folds" envconfig:"FOLDS" validate:"min=2"`
	Shuffle      bool     `yaml:"shuffle" envconfig:"SHUFFLE"`
	Seed         uint64   `yaml:"seed" envconfig:"SEED"`
	Jobs         int      `yaml:"jobs" envconfig:"JOBS" validate:"min=0"`
	FillValue    float64  `yaml:"fill_value" envconfig:"FILL_VALUE"`
	Log1pColumns []string `yaml:"log1p_columns" envconfig:"LOG1P_COLUMNS" validate:"dive,required"`
}

// TelemetryConfig controls tracing and metrics export
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" validate:"required"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"min=0,max=1"`
	TraceFile      string  `yaml:"trace_file" envconfig:"TRACE_FILE"`
	PushgatewayURL string  `yaml:"pushgateway_url" envconfig:"PUSHGATEWAY_URL" validate:"omitempty,url"`
	PushJob        string  `yaml:"push_job" envconfig:"PUSH_JOB" validate:"required_with=PushgatewayURL"`
}

// Load builds the configuration from defaults, an optional YAML file and
// SALES_* environment variables, in increasing order of precedence.
// An empty path searches the usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	configFile := path
	if configFile == "" {
		configFile = getConfigFilePath()
	} else if _, err := os.Stat(configFile); err != nil {
		return nil, errors.NewConfigError("config file not readable", err).WithContext("path", configFile)
	}

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, errors.NewConfigError("failed to load config from file", err).WithContext("path", configFile)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks every field against its validate tag
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.NewConfigError("config validation failed", err)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/salescli.log",
		},
		Paths: PathsConfig{
			DataDir:        "data",
			TrainFile:      "train.csv",
			TestFile:       "test.csv",
			StoreFile:      "store.csv",
			ReportsDir:     "reports",
			SubmissionsDir: "submissions",
			LogsDir:        "logs",
			DatabaseFile:   "data/sales.db",
		},
		Pipeline: PipelineConfig{
			TrainExcludeYear:        2015,
			TestExcludeYear:         2050,
			HolidayEndingFromMonth:  7,
			HolidayEndingToMonth:    9,
			MissingCompetitionYear:  2050,
			MissingCompetitionMonth: 1,
			UnseenStorePolicy:       "global",
			PersistDistributions:    true,
			WriteReport:             true,
		},
		Evaluation: EvaluationConfig{
			Folds:   4,
			Shuffle: true,
			Seed:    42,
			Jobs:    0,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "salescli",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
			PushJob:        "salescli",
		},
	}
}
