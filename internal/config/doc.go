// Package config provides centralized configuration management for salescli.
// It loads configuration from multiple sources, validates it and resolves
// every file system location a run touches.
//
// # Configuration Sources
//
// Configuration is assembled in increasing order of precedence:
//
//	1. Default values (Default)
//	2. A YAML file (--config, config.yaml or configs/config.yaml)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern SALES_<SECTION>_<FIELD>:
//
//	SALES_LOGGING_LEVEL=debug
//	SALES_PATHS_DATA_DIR=/data/rossmann
//	SALES_PIPELINE_TRAIN_EXCLUDE_YEAR=2015
//	SALES_PIPELINE_UNSEEN_STORE_POLICY=zero
//	SALES_EVALUATION_LOG1P_COLUMNS=Sales_mean,Sales_std
//
// # Validation
//
// The assembled configuration is validated with go-playground/validator
// tags. An invalid configuration is reported as a CONFIG error.
//
// # Path Management
//
// ResolvePaths maps PathsConfig onto concrete paths. Input files are
// resolved against the data directory; output directories are used as given:
//
//	paths := config.ResolvePaths(cfg.Paths)
//	if err := paths.EnsureDirectories(); err != nil { ... }
//	out := paths.GetReportPath(config.TrainFeaturesFile)
package config
