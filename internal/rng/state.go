package rng

import (
	"encoding/json"
	"fmt"
	rand "math/rand/v2"
	"os"
	"path/filepath"
)

// State is the serializable snapshot of a Manager. MasterState holds the
// master PCG's binary marshaling verbatim; restoring it reproduces the exact
// seed sequence the manager would have produced without a checkpoint.
type State struct {
	BaseSeed    int64  `json:"base_seed"`
	UseCrypto   bool   `json:"use_crypto"`
	SeedCounter int64  `json:"seed_counter"`
	MasterState []byte `json:"master_state"`
}

// StateError reports a checkpoint field that is missing, has the wrong type,
// or is out of range. No partial restore is attempted.
type StateError struct {
	Field  string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invalid rng state: field %q %s", e.Field, e.Reason)
}

// State captures the manager for checkpointing.
func (m *Manager) State() (State, error) {
	masterState, err := m.pcg.MarshalBinary()
	if err != nil {
		return State{}, fmt.Errorf("failed to marshal master state: %w", err)
	}
	return State{
		BaseSeed:    m.baseSeed,
		UseCrypto:   m.useCrypto,
		SeedCounter: m.seedCounter,
		MasterState: masterState,
	}, nil
}

// FromState restores a manager from a snapshot. The restored manager
// produces the same subsequent output sequence as the original would have.
func FromState(st State) (*Manager, error) {
	if st.BaseSeed < 0 {
		return nil, &StateError{Field: "base_seed", Reason: "is out of range (must be non-negative)"}
	}
	if st.SeedCounter < 0 {
		return nil, &StateError{Field: "seed_counter", Reason: "is out of range (must be non-negative)"}
	}
	pcg := &rand.PCG{}
	if err := pcg.UnmarshalBinary(st.MasterState); err != nil {
		return nil, &StateError{Field: "master_state", Reason: fmt.Sprintf("is not a valid generator snapshot: %v", err)}
	}
	m := &Manager{
		baseSeed:    st.BaseSeed,
		useCrypto:   st.UseCrypto,
		seedCounter: st.SeedCounter,
		pcg:         pcg,
	}
	m.master = rand.New(m.pcg)
	return m, nil
}

// ParseState decodes a persisted snapshot, reporting the first missing or
// mistyped field by name.
func ParseState(data []byte) (State, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, &StateError{Field: "(document)", Reason: fmt.Sprintf("is not a JSON object: %v", err)}
	}

	var st State
	if err := decodeField(raw, "base_seed", &st.BaseSeed); err != nil {
		return State{}, err
	}
	if err := decodeField(raw, "use_crypto", &st.UseCrypto); err != nil {
		return State{}, err
	}
	if err := decodeField(raw, "seed_counter", &st.SeedCounter); err != nil {
		return State{}, err
	}
	if err := decodeField(raw, "master_state", &st.MasterState); err != nil {
		return State{}, err
	}
	if st.BaseSeed < 0 {
		return State{}, &StateError{Field: "base_seed", Reason: "is out of range (must be non-negative)"}
	}
	if st.SeedCounter < 0 {
		return State{}, &StateError{Field: "seed_counter", Reason: "is out of range (must be non-negative)"}
	}
	return st, nil
}

func decodeField(raw map[string]json.RawMessage, name string, dst any) error {
	msg, ok := raw[name]
	if !ok {
		return &StateError{Field: name, Reason: "is missing"}
	}
	if err := json.Unmarshal(msg, dst); err != nil {
		return &StateError{Field: name, Reason: fmt.Sprintf("has the wrong type: %v", err)}
	}
	return nil
}

// SaveStateFile writes the manager snapshot as JSON, atomically: the file is
// written to a temp path in the same directory and renamed into place, so a
// reader sees either no checkpoint or a complete one.
func (m *Manager) SaveStateFile(path string) error {
	st, err := m.State()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rng state: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}
	tmp = nil
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	return nil
}

// LoadStateFile restores a manager from a snapshot written by SaveStateFile.
func LoadStateFile(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	st, err := ParseState(data)
	if err != nil {
		return nil, err
	}
	return FromState(st)
}
