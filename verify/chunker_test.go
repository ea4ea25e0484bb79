package verify

import "testing"

// weightedJobs builds jobs with the given set counts, indexed in order.
func weightedJobs(weights ...int) []job {
	jobs := make([]job, len(weights))
	for i, w := range weights {
		jobs[i] = job{index: i, sets: markedReq(true, repeat(markValid, w)...).Sets}
	}
	return jobs
}

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func repeatInt(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestChunkifyEmpty(t *testing.T) {
	if got := chunkify(nil, 16); got != nil {
		t.Errorf("chunkify(nil) = %v, want nil", got)
	}
}

func TestChunkifyBoundary(t *testing.T) {
	// 17 single-set jobs at threshold 16: one full chunk, one of weight 1.
	jobs := weightedJobs(repeatInt(1, 17)...)
	chunks := chunkify(jobs, 16)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if w := chunkWeight(chunks[0]); w != 16 {
		t.Errorf("first chunk weight = %d, want 16", w)
	}
	if w := chunkWeight(chunks[1]); w != 1 {
		t.Errorf("second chunk weight = %d, want 1", w)
	}
}

func TestChunkifyUndersizedTail(t *testing.T) {
	// Total weight 3 < 16: one undersized terminal chunk.
	chunks := chunkify(weightedJobs(1, 1, 1), 16)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if w := chunkWeight(chunks[0]); w != 3 {
		t.Errorf("chunk weight = %d, want 3", w)
	}
}

func TestChunkifyHeavyJobOwnChunk(t *testing.T) {
	// A job already at the threshold closes its chunk alone.
	chunks := chunkify(weightedJobs(20, 1), 16)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if len(chunks[0]) != 1 || chunks[0][0].index != 0 {
		t.Errorf("heavy job should form its own chunk: %v", chunks[0])
	}
}

func TestChunkifyNeverSplitsJobs(t *testing.T) {
	chunks := chunkify(weightedJobs(10, 10, 10), 16)
	for ci, chunk := range chunks {
		for _, j := range chunk {
			if len(j.sets) != 10 {
				t.Errorf("chunk %d holds a partial job of %d sets", ci, len(j.sets))
			}
		}
	}
}

func TestChunkifyMinClamp(t *testing.T) {
	chunks := chunkify(weightedJobs(1, 1), 0)
	if len(chunks) != 2 {
		t.Errorf("min<1 should behave as 1, got %d chunks", len(chunks))
	}
}

func TestChunkifyWeightLaw(t *testing.T) {
	// Every chunk except possibly the last reaches the threshold; order is
	// preserved; the concatenation of chunks equals the input.
	for _, min := range []int{1, 2, 16, 64} {
		for n := 0; n <= 40; n++ {
			weights := make([]int, n)
			for i := range weights {
				weights[i] = i%5 + 1
			}
			jobs := weightedJobs(weights...)
			chunks := chunkify(jobs, min)

			var flat []job
			for ci, chunk := range chunks {
				if ci < len(chunks)-1 && chunkWeight(chunk) < min {
					t.Fatalf("min=%d n=%d: chunk %d weight %d below threshold",
						min, n, ci, chunkWeight(chunk))
				}
				flat = append(flat, chunk...)
			}
			if len(flat) != len(jobs) {
				t.Fatalf("min=%d n=%d: concatenation has %d jobs, want %d",
					min, n, len(flat), len(jobs))
			}
			for i := range flat {
				if flat[i].index != jobs[i].index {
					t.Fatalf("min=%d n=%d: order broken at %d", min, n, i)
				}
			}
		}
	}
}
