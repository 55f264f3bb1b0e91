// Package store persists featurize runs, their store distribution tables and
// evaluation scores in a SQLite database.
package store
