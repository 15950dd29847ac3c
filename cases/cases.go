package cases

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound indicates the named case does not exist in the dataset.
var ErrNotFound = errors.New("case not found")

// Record holds the pre-authored text fields for one patient case.
type Record struct {
	// Name is the case key, e.g. the patient's display name.
	Name string

	// Dialogue is the scripted patient-doctor conversation, returned
	// by the simulated transcription step.
	Dialogue string

	// EHR is the pre-authored electronic health record text.
	EHR string

	// Reasoning is the pre-authored clinical reasoning text.
	Reasoning string

	// Conclusion is the pre-authored diagnostic conclusion.
	Conclusion string
}

// Loader resolves case names to records. The dataset is read once at
// startup and never mutated, so implementations only need to be safe
// for concurrent reads.
type Loader interface {
	// Lookup returns the record for the named case, or ErrNotFound.
	Lookup(name string) (*Record, error)

	// Names returns all case names in a stable order.
	Names() []string
}

// Infer returns the first of the known case names contained in the
// payload text. Matching is deterministic in the order names are given.
func Infer(payload string, names []string) (string, bool) {
	for _, name := range names {
		if name != "" && strings.Contains(payload, name) {
			return name, true
		}
	}
	return "", false
}

// StaticLoader serves records from a fixed in-memory map.
type StaticLoader struct {
	records map[string]*Record
	names   []string
}

// NewStaticLoader builds a loader over the given records. Names are
// served in sorted order so inference stays deterministic.
func NewStaticLoader(records map[string]*Record) *StaticLoader {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	return &StaticLoader{records: records, names: names}
}

// Lookup returns the record for the named case, or ErrNotFound.
func (l *StaticLoader) Lookup(name string) (*Record, error) {
	r, ok := l.records[name]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// Names returns all case names in sorted order.
func (l *StaticLoader) Names() []string {
	return l.names
}

// Unavailable is a loader standing in for a dataset that failed to load.
// Every lookup reports ErrNotFound; load failure is non-fatal by design.
type Unavailable struct{}

// Lookup always reports ErrNotFound.
func (Unavailable) Lookup(name string) (*Record, error) {
	return nil, ErrNotFound
}

// Names returns no names.
func (Unavailable) Names() []string {
	return nil
}
