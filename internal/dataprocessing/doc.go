// Package dataprocessing builds the model-ready sales feature tables.
//
// # Architecture
//
// The package is organized into stages that each take a table and return a new one:
//
// 1. Parser: reads train.csv, test.csv and store.csv into typed tables
// 2. Normalizers: calendar features for sales, imputation and one-hot encoding for stores
// 3. Merger: joins sales onto stores and derives PostComp
// 4. Holidays: weekend extension of school holidays and the holiday-ending flag
// 5. Distributions: per-store Sales statistics, merged back as Sales_mean/Sales_std
//
// # Usage
//
//	parser := dataprocessing.NewCSVParser(logger)
//	train, err := parser.ParseSalesFile("data/train.csv")
//	if err != nil {
//	    return err
//	}
//	stores, err := parser.ParseStoreFile("data/store.csv")
//	if err != nil {
//	    return err
//	}
//
//	pipeline, err := dataprocessing.NewPipeline(logger, dataprocessing.DefaultPipelineOptions())
//	if err != nil {
//	    return err
//	}
//	result, err := pipeline.TransformTrain(ctx, train, stores)
//
// # Data Flow
//
//	CSV → SalesTable → SalesFeatures ─┐
//	CSV → StoreTable → NormalizedStores ┴→ EnrichedTable → DistributionTable → FeatureTable
//
// The test table reuses the training stores and distributions and is reindexed
// to the training column list.
//
// # Error Handling
//
// A missing required column is a SCHEMA error. An unparseable cell is a PARSING
// error carrying file, line and column in its context. Invalid calendar values
// never fail; they map to a sentinel date or an unknown result.
package dataprocessing
