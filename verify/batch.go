package verify

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/eth2030/blsworker/crypto"
	"github.com/eth2030/blsworker/log"
)

// BatchVerifier runs the per-request verification state machine: split into
// batchable and non-batchable streams, chunk the batchable stream, try each
// chunk as one randomized aggregate verification, demote failed chunks to
// per-job verification, and assemble verdicts at their original indices.
//
// A BatchVerifier holds no request state; the same instance serves any
// number of sequential requests.
type BatchVerifier struct {
	backend     crypto.Backend
	minPerChunk int
	log         *log.Logger
	m           *engineMetrics
}

// NewBatchVerifier creates a verifier from the config. Zero config fields
// take their defaults.
func NewBatchVerifier(cfg Config) *BatchVerifier {
	cfg = cfg.sanitize()
	return &BatchVerifier{
		backend:     cfg.Backend,
		minPerChunk: cfg.BatchableMinPerChunk,
		log:         cfg.Logger.Module("batcher"),
		m:           newEngineMetrics(cfg.Registry),
	}
}

// requestStats are the counts accumulated while verifying one request.
type requestStats struct {
	batchRetries     uint64
	batchSigsSuccess uint64
	duplicateSets    uint64
}

// run verifies every request and returns one verdict per input index.
// Results are deterministic for identical inputs: same verdicts, same
// counts, regardless of host CPU count.
func (bv *BatchVerifier) run(ctx context.Context, reqs []WorkReq) ([]WorkResult, requestStats) {
	results := make([]WorkResult, len(reqs))
	var stats requestStats
	if len(reqs) == 0 {
		return results, stats
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats.duplicateSets = countDuplicateSets(reqs)
	if stats.duplicateSets > 0 {
		bv.m.duplicateSets.Add(int64(stats.duplicateSets))
		bv.log.Debug("request repeats identical signature sets", "duplicates", stats.duplicateSets)
	}

	batchable, nonBatchable := splitJobs(reqs, results)

	// Batch phase. Chunks are processed in input order; a failed or errored
	// chunk is demoted whole to the individual phase, in failure order.
	var demoted []job
	chunks := chunkify(batchable, bv.minPerChunk)
	for ci, chunk := range chunks {
		if ctx.Err() != nil {
			// Remaining chunks flow into the individual phase, where the
			// per-job cancellation check marks them.
			for _, rest := range chunks[ci:] {
				demoted = append(demoted, rest...)
			}
			break
		}

		sets := concatSets(chunk)
		ok, err := bv.backend.VerifyMany(sets)
		if err == nil && ok {
			for _, j := range chunk {
				results[j.index] = success(true)
			}
			stats.batchSigsSuccess += uint64(len(sets))
			continue
		}

		// The batch failed as a whole, or the primitive rejected input the
		// per-set path may judge differently. The individual re-verify is
		// authoritative either way.
		stats.batchRetries++
		demoted = append(demoted, chunk...)
		if err != nil {
			bv.log.Debug("batch verification errored, demoting chunk",
				"chunk", ci, "sets", len(sets), "err", err)
		} else {
			bv.log.Debug("batch verification failed, demoting chunk",
				"chunk", ci, "sets", len(sets))
		}
	}

	// Individual phase: demoted jobs first, then the originally
	// non-batchable jobs in index order.
	for _, j := range demoted {
		results[j.index] = bv.verifyJob(ctx, j)
	}
	for _, j := range nonBatchable {
		results[j.index] = bv.verifyJob(ctx, j)
	}

	bv.m.requests.Inc()
	bv.m.batchRetries.Add(int64(stats.batchRetries))
	bv.m.batchSigsSuccess.Add(int64(stats.batchSigsSuccess))
	return results, stats
}

// verifyJob verifies one job's sets as a single conjunction. The job's sets
// stay together; they are not split further.
func (bv *BatchVerifier) verifyJob(ctx context.Context, j job) WorkResult {
	if ctx.Err() != nil {
		return failure(CodeCancelled, ErrCancelled)
	}
	ok, err := bv.backend.VerifyMany(j.sets)
	if err != nil {
		code := CodePrimitiveFault
		if crypto.IsInputError(err) {
			code = CodeInvalidInput
		}
		bv.log.Debug("individual verification errored",
			"job", j.index, "code", code.String(),
			"pubkey", hexutil.Encode(j.sets[0].PublicKey), "err", err)
		return failure(code, err)
	}
	return success(ok)
}

// concatSets flattens a chunk's sets preserving job order.
func concatSets(chunk []job) []*crypto.SignatureSet {
	sets := make([]*crypto.SignatureSet, 0, chunkWeight(chunk))
	for _, j := range chunk {
		sets = append(sets, j.sets...)
	}
	return sets
}

// countDuplicateSets counts sets repeating an earlier set of the same
// request byte-for-byte. Callers are expected to pre-aggregate; duplicates
// are redundant work worth surfacing.
func countDuplicateSets(reqs []WorkReq) uint64 {
	seen := make(map[[32]byte]struct{})
	var dups uint64
	for _, req := range reqs {
		for _, s := range req.Sets {
			if s == nil {
				continue
			}
			fp := s.Fingerprint()
			if _, ok := seen[fp]; ok {
				dups++
				continue
			}
			seen[fp] = struct{}{}
		}
	}
	return dups
}
