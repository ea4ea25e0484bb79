package verify

import "github.com/eth2030/blsworker/crypto"

// job is one caller request tagged with its position in the input array.
type job struct {
	index int
	sets  []*crypto.SignatureSet
}

// splitJobs partitions requests into batchable and non-batchable streams,
// preserving input order within each stream. Requests with zero sets are
// resolved in place as InvalidInput and routed to neither stream.
func splitJobs(reqs []WorkReq, results []WorkResult) (batchable, nonBatchable []job) {
	for i, req := range reqs {
		if len(req.Sets) == 0 {
			results[i] = failure(CodeInvalidInput, ErrNoSets)
			continue
		}
		j := job{index: i, sets: req.Sets}
		if req.Batchable {
			batchable = append(batchable, j)
		} else {
			nonBatchable = append(nonBatchable, j)
		}
	}
	return batchable, nonBatchable
}
