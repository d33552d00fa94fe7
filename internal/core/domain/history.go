package domain

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// HistoryRecord is one past resolution decision. Records are never mutated once written.
type HistoryRecord struct {
	Signature string    `json:"signature"`
	Package   string    `json:"package"`
	Version   Version   `json:"chosen_version"`
	Strategy  string    `json:"strategy"`
	Timestamp time.Time `json:"timestamp"`
}

// Signature hashes a conflict structure: the involved package names and the constraint set.
// The inputs are sorted first, so argument order does not matter.
func Signature(names, constraints []string) string {
	n := slices.Clone(names)
	slices.Sort(n)
	c := slices.Clone(constraints)
	slices.Sort(c)
	c = slices.Compact(c)

	d := xxhash.New()
	for _, s := range n {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	_, _ = d.Write([]byte{1})
	for _, s := range c {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// HistoryLog is the single handle on the resolution history.
// Workers read it concurrently while resolving; records produced by a run are appended once after merge.
type HistoryLog struct {
	mu      sync.RWMutex
	records []HistoryRecord
	bySig   map[string]int
	counts  map[string]map[string]int
	pending []HistoryRecord
}

// NewHistoryLog creates a log seeded with previously persisted records.
func NewHistoryLog(records []HistoryRecord) *HistoryLog {
	h := &HistoryLog{
		bySig:  make(map[string]int),
		counts: make(map[string]map[string]int),
	}
	for _, r := range records {
		h.index(r)
	}
	return h
}

func (h *HistoryLog) index(r HistoryRecord) {
	h.records = append(h.records, r)
	h.bySig[r.Signature] = len(h.records) - 1
	byVersion, ok := h.counts[r.Package]
	if !ok {
		byVersion = make(map[string]int)
		h.counts[r.Package] = byVersion
	}
	byVersion[r.Version.String()]++
}

// Lookup returns the most recent record for a signature.
func (h *HistoryLog) Lookup(signature string) (HistoryRecord, bool) {
	if h == nil {
		return HistoryRecord{}, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	i, ok := h.bySig[signature]
	if !ok {
		return HistoryRecord{}, false
	}
	return h.records[i], true
}

// SuccessRate returns the share of past decisions for pkg that chose version, in [0,1].
func (h *HistoryLog) SuccessRate(pkg string, version Version) float64 {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	byVersion := h.counts[pkg]
	total := 0
	for _, n := range byVersion {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(byVersion[version.String()]) / float64(total)
}

// Append adds records to the log and queues them for persistence.
func (h *HistoryLog) Append(records ...HistoryRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range records {
		h.index(r)
		h.pending = append(h.pending, r)
	}
}

// Pending returns and clears the records appended since the last call.
func (h *HistoryLog) Pending() []HistoryRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.pending
	h.pending = nil
	return out
}

// Len returns the number of records in the log.
func (h *HistoryLog) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}
