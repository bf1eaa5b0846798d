package core

import "github.com/go-faster/errors"

var ErrEntityNotFound = errors.New("entity not found")

// ErrValidation is returned for malformed input before any network call is made.
var ErrValidation = errors.New("validation failed")

// ErrEmptyBatch means there is nothing to do for the given plan.
var ErrEmptyBatch = errors.Wrap(ErrValidation, "empty batch")

// ErrTooManyOperations means the batch does not fit into a single transaction.
var ErrTooManyOperations = errors.Wrap(ErrValidation, "too many operations")

var ErrDependencyUnavailable = errors.New("dependency unavailable")

var ErrSignerRejected = errors.New("signer rejected")

var ErrSubmissionFailed = errors.New("submission failed")
