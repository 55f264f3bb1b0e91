// Package evaluation scores regression models on the feature tables.
//
// GetRawValues projects a FeatureTable onto a numeric matrix and the Sales
// target. KFold splits row indices, CrossValScore fits a fresh Estimator per
// fold and scores it with a Scorer built by MakeScorer. Log1pTransform and
// NanPreProcessor are Transformers that can be chained in front of an
// estimator with Chain.
package evaluation
