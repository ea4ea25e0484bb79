package verify

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eth2030/blsworker/crypto"
	"github.com/eth2030/blsworker/log"
	"github.com/eth2030/blsworker/metrics"
)

// Signature markers steering the mock backend. The first signature byte
// keeps the compression bit set so sets also pass structural validation.
const (
	markValid       = 0xAA // verifies
	markInvalid     = 0xBB // cryptographically invalid
	markInputErr    = 0xCC // malformed input error
	markFault       = 0xDD // internal library fault
	markBatchPoison = 0xEE // errors in multi-set calls, invalid individually
	markPanic       = 0xFE // panics the verification path
)

var errMockFault = errors.New("mock: library fault")

// mockBackend judges sets by their marker byte and records the size of
// every VerifyMany call, in order. Safe for concurrent use.
type mockBackend struct {
	mu        sync.Mutex
	manySizes []int

	// onMany, when set, runs before each VerifyMany evaluation. Tests use
	// it to fire cancellations mid-request.
	onMany func(call int)
	calls  int
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) judge(s *crypto.SignatureSet) (bool, error) {
	switch s.Signature[1] {
	case markValid:
		return true, nil
	case markInvalid, markBatchPoison:
		return false, nil
	case markInputErr:
		return false, crypto.ErrPubkeyFormat
	case markFault:
		return false, errMockFault
	case markPanic:
		panic("mock: poisoned set")
	default:
		return false, errMockFault
	}
}

func (m *mockBackend) VerifySet(s *crypto.SignatureSet) (bool, error) {
	return m.judge(s)
}

func (m *mockBackend) VerifyMany(sets []*crypto.SignatureSet) (bool, error) {
	m.mu.Lock()
	m.manySizes = append(m.manySizes, len(sets))
	m.calls++
	call := m.calls
	hook := m.onMany
	m.mu.Unlock()
	if hook != nil {
		hook(call)
	}

	if len(sets) == 0 {
		return false, crypto.ErrEmptyBatch
	}
	if len(sets) > 1 {
		for _, s := range sets {
			if s.Signature[1] == markBatchPoison {
				return false, errMockFault
			}
		}
	}
	for _, s := range sets {
		ok, err := m.judge(s)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (m *mockBackend) sizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.manySizes))
	copy(out, m.manySizes)
	return out
}

// setCounter disambiguates otherwise-identical test sets. Atomic because
// pool tests build sets from multiple goroutines.
var setCounter atomic.Uint32

// markedSet builds a structurally valid set whose marker byte drives the
// mock backend.
func markedSet(marker byte) *crypto.SignatureSet {
	n := setCounter.Add(1)
	pk := make([]byte, crypto.PublicKeyLength)
	pk[0] = 0xa0
	pk[1] = byte(n)
	pk[2] = byte(n >> 8)
	sig := make([]byte, crypto.SignatureLength)
	sig[0] = 0xa0
	sig[1] = marker
	sig[2] = byte(n)
	sig[3] = byte(n >> 8)
	var msg [32]byte
	msg[0] = byte(n)
	msg[1] = byte(n >> 8)
	return &crypto.SignatureSet{PublicKey: pk, Message: msg, Signature: sig}
}

// markedReq builds a request with one set per marker.
func markedReq(batchable bool, markers ...byte) WorkReq {
	sets := make([]*crypto.SignatureSet, len(markers))
	for i, mk := range markers {
		sets[i] = markedSet(mk)
	}
	return WorkReq{Sets: sets, Batchable: batchable}
}

// quietLogger drops all output.
func quietLogger() *log.Logger {
	return log.NewWithHandler(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock returns strictly increasing timestamps, one second apart.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// testConfig wires a config around the mock backend with quiet logging and
// a deterministic clock.
func testConfig(b crypto.Backend) Config {
	return Config{
		BatchableMinPerChunk: DefaultBatchableMinPerChunk,
		Workers:              2,
		QueueDepth:           4,
		Backend:              b,
		Now:                  newFakeClock().Now,
		Logger:               quietLogger(),
		Registry:             metrics.NewRegistry(),
	}
}
