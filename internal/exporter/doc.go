// Package exporter writes the pipeline outputs.
//
// CSVWriter: core CSV writing with streaming and optional UTF-8 BOM.
//
// FeatureExporter: feature tables as CSV with leading [Id,] Date key columns,
// and the matching reader used by the evaluate and submit commands.
//
// SubmissionWriter: timestamped predictions_<YYYYMMDD_HHMMSS>.csv files with a
// quoted header and bare numeric values, sorted by Id.
//
// ReportExporter: the distribution workbook (Distributions and Stores sheets).
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(paths, logger)
//	features := exporter.NewFeatureExporter(writer, logger)
//	path, err := features.WriteFeatures(config.TrainFeaturesFile, table)
package exporter
