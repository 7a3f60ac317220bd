package collector

import (
	"net/url"
	"sort"
	"sync"
	"time"
)

var secretParams = []string{"api_key", "apikey", "x_cg_demo_api_key", "token"}

// SourceStatus is the last observed outcome of calls to one source.
type SourceStatus struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	MS    int64  `json:"ms"`
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// Health records per-source call outcomes. Safe for concurrent use.
type Health struct {
	mu      sync.Mutex
	sources map[string]SourceStatus
}

// NewHealth returns an empty tracker.
func NewHealth() *Health {
	return &Health{sources: make(map[string]SourceStatus)}
}

// Record stores the outcome of one call. Later calls for the same source
// replace earlier ones, except that a failure is not hidden by a later
// success within the same run.
func (h *Health) Record(name, rawURL string, elapsed time.Duration, err error) {
	st := SourceStatus{Name: name, OK: err == nil, MS: elapsed.Milliseconds(), URL: Redact(rawURL)}
	if err != nil {
		st.Error = err.Error()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.sources[name]; ok && !prev.OK && st.OK {
		prev.MS += st.MS
		h.sources[name] = prev
		return
	}
	h.sources[name] = st
}

// Snapshot returns all statuses sorted by name.
func (h *Health) Snapshot() []SourceStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]SourceStatus, 0, len(h.sources))
	for _, st := range h.sources {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Failed returns the names of sources whose last recorded call failed.
func (h *Health) Failed() []string {
	var names []string
	for _, st := range h.Snapshot() {
		if !st.OK {
			names = append(names, st.Name)
		}
	}
	return names
}

// Redact blanks credential query parameters.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
