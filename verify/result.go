// Package verify implements the batch signature-verification engine: it
// takes a queue of independent verification jobs, groups the batchable ones
// into chunks, runs each chunk through randomized aggregate verification,
// falls back to per-job verification when a chunk fails, and returns
// per-job verdicts preserving the caller's original ordering.
package verify

import (
	"errors"
	"fmt"
	"time"

	"github.com/eth2030/blsworker/crypto"
)

// Engine-level errors carried inside WorkResult.
var (
	ErrNoSets        = errors.New("verify: request has no signature sets")
	ErrCancelled     = errors.New("verify: cancelled before verification")
	ErrInternal      = errors.New("verify: internal worker failure")
	ErrWorkerStopped = errors.New("verify: worker stopped")
)

// WorkReq is one caller-submitted job: a non-empty list of signature sets
// verified as a conjunction. Batchable asserts that the job's sets may be
// interleaved with sets from other jobs inside a single batch call.
type WorkReq struct {
	Sets      []*crypto.SignatureSet
	Batchable bool
}

// ErrorCode classifies the outcome of a job.
type ErrorCode uint8

const (
	// CodeUnset is the zero value: no verdict has been assigned yet. It
	// never appears in a returned result set.
	CodeUnset ErrorCode = iota

	// CodeOK means verification ran; Valid carries the verdict.
	CodeOK

	// CodeInvalidInput means a set was malformed (bad point, wrong length).
	CodeInvalidInput

	// CodePrimitiveFault means the crypto library failed internally during
	// individual verification.
	CodePrimitiveFault

	// CodeCancelled means the cancellation signal fired before the job was
	// verified.
	CodeCancelled

	// CodeInternal means the worker hit a catastrophic error; the whole
	// request carries this code.
	CodeInternal
)

// String returns a short name for the code.
func (c ErrorCode) String() string {
	switch c {
	case CodeUnset:
		return "unset"
	case CodeOK:
		return "ok"
	case CodeInvalidInput:
		return "invalid_input"
	case CodePrimitiveFault:
		return "primitive_fault"
	case CodeCancelled:
		return "cancelled"
	case CodeInternal:
		return "internal"
	default:
		return fmt.Sprintf("code(%d)", uint8(c))
	}
}

// WorkResult is the per-job verdict. With Code == CodeOK, Valid reports
// whether every set in the job verified; a cryptographically invalid
// signature is a false verdict, not an error. Any other code means
// verification could not be performed and Err carries the reason.
type WorkResult struct {
	Valid bool
	Code  ErrorCode
	Err   error
}

// OK reports whether verification ran to a verdict.
func (r WorkResult) OK() bool { return r.Code == CodeOK }

// success builds a verdict result.
func success(valid bool) WorkResult {
	return WorkResult{Valid: valid, Code: CodeOK}
}

// failure builds an error result.
func failure(code ErrorCode, err error) WorkResult {
	return WorkResult{Code: code, Err: err}
}

// WorkMetrics are the per-request counts and timing brackets.
type WorkMetrics struct {
	// BatchRetries is the number of chunks whose batch verification failed
	// and whose jobs were re-verified individually.
	BatchRetries uint64

	// BatchSigsSuccess is the number of sets admitted via a successful
	// batch. Chunks that failed and were retried individually do not
	// contribute.
	BatchSigsSuccess uint64

	// DuplicateSets is the number of sets that repeat an earlier set of the
	// same request byte-for-byte. Duplicates indicate a caller bug; they do
	// not change verdicts.
	DuplicateSets uint64

	// WorkerStart and WorkerEnd bracket request execution on the worker's
	// monotonic clock.
	WorkerStart time.Time
	WorkerEnd   time.Time
}

// BlsWorkResult is the outcome of one submitted request: one WorkResult per
// WorkReq, indexed identically to the input, plus the request metrics.
type BlsWorkResult struct {
	Results []WorkResult
	Metrics WorkMetrics
}
