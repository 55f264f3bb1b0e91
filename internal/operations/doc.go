// Package operations runs the feature pipeline as a sequence of dependent steps.
//
// A Registry holds the steps and orders them by dependency. The Manager plans
// the requested subset, executes it sequentially with per-step timeouts and
// retries, and records a span and metrics for the run and for every step.
// Steps exchange tables through OperationState.Put under the ContextKey*
// names; ContextValue reads them back with their concrete type.
//
// The pipeline steps are:
//
//	load            parse train.csv and store.csv
//	stores          normalize the store metadata
//	train_features  merge stores and derive holiday features for train
//	distributions   per-store sales mean and std before and after competition
//	train_table     training feature table
//	test_features   parse and enrich test.csv
//	test_table      test feature table aligned to the training columns
//	export          write feature CSVs, the optional report and the run record
//
// A failing step skips everything that depends on it. Only retryable errors
// are attempted again: those created with Retryable set, and storage or
// export failures returned unwrapped.
package operations
