package store

import "errors"

// ErrMissingRef marks a reference that must already exist in the database,
// such as a rating or a relation target. The wrapped message names the
// offending value.
var ErrMissingRef = errors.New("missing required reference")

// ErrConsistency marks a non-retryable invariant violation, such as a
// freshly inserted row that cannot be resolved again. It signals a concurrent
// external mutation or a store bug; retrying is not meaningful.
var ErrConsistency = errors.New("store consistency violation")
