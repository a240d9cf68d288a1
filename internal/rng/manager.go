// Package rng owns all random-source derivation for the simulator. Every
// source handed to a session or worker is derived from a single base seed so
// that a run is reproducible bit-for-bit regardless of worker count.
package rng

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	rand "math/rand/v2"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// Purpose tags keep the derivation domains for streams, workers and the
// master generator disjoint. A stream source and a worker source derived
// from the same counter value must never collide.
const (
	purposeStream uint64 = 0x53545245414d5347 // "STREAMSG"
	purposeWorker uint64 = 0x574f524b45525347 // "WORKERSG"
	purposeMaster uint64 = 0x4d41535445525347 // "MASTERSG"
)

// Manager derives reproducible random sources from a single base seed.
// The seed counter and the master generator state are the only mutable
// pieces; both are captured by State for checkpointing.
//
// A Manager is not safe for concurrent use. The simulation controller owns
// it exclusively and finishes all derivation before workers start.
type Manager struct {
	baseSeed    int64
	useCrypto   bool
	seedCounter int64
	pcg         *rand.PCG
	master      *rand.Rand
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithCrypto seeds every derived source from the operating system entropy
// pool instead of the deterministic scheme. Reproducibility is intentionally
// disabled; the base seed is still recorded for bookkeeping.
func WithCrypto() Option {
	return func(m *Manager) { m.useCrypto = true }
}

// NewManager creates a manager rooted at baseSeed. The seed must be
// non-negative so it survives the checkpoint format's range checks.
func NewManager(baseSeed int64, opts ...Option) (*Manager, error) {
	if baseSeed < 0 {
		return nil, fmt.Errorf("base seed must be non-negative, got %d", baseSeed)
	}
	m := &Manager{baseSeed: baseSeed}
	for _, opt := range opts {
		opt(m)
	}
	m.initMaster()
	return m, nil
}

// NewManagerFromEntropy creates a manager with a process-generated base seed.
// The run is still reproducible afterwards by reading BaseSeed back.
func NewManagerFromEntropy(opts ...Option) (*Manager, error) {
	seed, err := entropySeed()
	if err != nil {
		return nil, err
	}
	// Clear the sign bit so the seed stays in the valid checkpoint range.
	return NewManager(int64(seed&0x7fffffffffffffff), opts...)
}

func (m *Manager) initMaster() {
	m.pcg = rand.NewPCG(mix(uint64(m.baseSeed)^purposeMaster), mix(uint64(m.baseSeed)+goldenRatio64))
	m.master = rand.New(m.pcg)
}

// BaseSeed returns the seed the manager was constructed with.
func (m *Manager) BaseSeed() int64 { return m.baseSeed }

// UseCrypto reports whether derived sources come from OS entropy.
func (m *Manager) UseCrypto() bool { return m.useCrypto }

// SeedCounter returns how many sequential sources have been derived.
func (m *Manager) SeedCounter() int64 { return m.seedCounter }

// NextSource derives the next source in the sequential stream. For a fixed
// base seed the result is a pure function of how many NextSource calls came
// before it; worker identity and wall-clock time never enter the derivation.
func (m *Manager) NextSource() *rand.Rand {
	defer func() { m.seedCounter++ }()
	if m.useCrypto {
		return entropySource()
	}
	return derive(uint64(m.baseSeed)^purposeStream, uint64(m.seedCounter))
}

// SessionSeeds produces one seed per session index, drawn from the master
// generator in index order. It must be called before the index range is
// partitioned into shards: the mapping from session index to seed is then
// independent of worker count and completion order.
func (m *Manager) SessionSeeds(n int) ([]uint64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("session count must be positive, got %d", n)
	}
	seeds := make([]uint64, n)
	for i := range seeds {
		if m.useCrypto {
			s, err := entropySeed()
			if err != nil {
				return nil, err
			}
			seeds[i] = s
		} else {
			seeds[i] = m.master.Uint64()
		}
	}
	return seeds, nil
}

// WorkerSource derives a source keyed by worker identity alone. Two managers
// with the same base seed hand the same source to worker N no matter how
// much other derivation either has done.
func (m *Manager) WorkerSource(workerID int) (*rand.Rand, error) {
	if workerID < 0 {
		return nil, fmt.Errorf("worker id must be non-negative, got %d", workerID)
	}
	if m.useCrypto {
		return entropySource(), nil
	}
	return derive(uint64(m.baseSeed)^purposeWorker, uint64(workerID)), nil
}

// Reset returns the manager to its just-constructed state, enabling a
// deterministic replay from the start of the run.
func (m *Manager) Reset() {
	m.seedCounter = 0
	m.initMaster()
}

// SourceForSeed builds the session-level source for a seed previously
// produced by SessionSeeds. It is a pure function so workers can call it
// without touching the manager.
func SourceForSeed(seed uint64) *rand.Rand {
	return derive(seed, seed+goldenRatio64)
}

// derive builds an independent PCG source from two derivation keys, mixing
// each so that related keys (counter values, worker ids) land far apart in
// state space.
func derive(a, b uint64) *rand.Rand {
	return rand.New(rand.NewPCG(mix(a), mix(b+goldenRatio64)))
}

// mix is the splitmix64 finalizer.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

func entropySeed() (uint64, error) {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read entropy: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func entropySource() *rand.Rand {
	var buf [16]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		// The OS entropy pool read failing is unrecoverable for a mode whose
		// whole point is real entropy.
		panic(fmt.Sprintf("rng: failed to read entropy: %v", err))
	}
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(buf[:8]),
		binary.LittleEndian.Uint64(buf[8:]),
	))
}
