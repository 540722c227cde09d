package discovery

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// LabelMap is the optional `cbusLabelFile` override file described in §6:
// human-assigned names, forced classifications, forced slugs, and an
// exclude list, all keyed by canonical "N/A/G" address.
type LabelMap struct {
	Labels        map[string]string `json:"labels"`
	TypeOverrides map[string]string `json:"typeOverrides"`
	EntityIDs     map[string]string `json:"entityIds"`
	Exclude       []string          `json:"exclude"`

	excludeSet map[string]bool
}

// LoadLabelMap reads and parses a label-map JSON file.
func LoadLabelMap(path string) (*LabelMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lm LabelMap
	if err := json.Unmarshal(data, &lm); err != nil {
		return nil, err
	}
	lm.excludeSet = make(map[string]bool, len(lm.Exclude))
	for _, addr := range lm.Exclude {
		lm.excludeSet[addr] = true
	}
	return &lm, nil
}

// Excluded reports whether addr is listed in the label map's exclude set.
func (lm *LabelMap) Excluded(addr string) bool {
	if lm == nil {
		return false
	}
	return lm.excludeSet[addr]
}

// Name returns the label-map display name for addr, if any.
func (lm *LabelMap) Name(addr string) (string, bool) {
	if lm == nil {
		return "", false
	}
	name, ok := lm.Labels[addr]
	return name, ok
}

// EntityID returns the label-map-forced slug for addr, if any.
func (lm *LabelMap) EntityID(addr string) (string, bool) {
	if lm == nil {
		return "", false
	}
	id, ok := lm.EntityIDs[addr]
	return id, ok
}

// TypeOverride returns the label-map-forced classification for addr, if
// any was configured (whether or not it resolves to a recognised Class is
// the caller's concern, per the label-map-vs-tree decision).
func (lm *LabelMap) TypeOverride(addr string) (string, bool) {
	if lm == nil {
		return "", false
	}
	v, ok := lm.TypeOverrides[addr]
	return v, ok
}

// LabelMapLogger is the minimal logging surface LabelMapWatcher needs.
type LabelMapLogger interface {
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// LabelMapWatcher holds a hot-reloadable LabelMap, checked by mtime
// alongside the discovery engine's own timers rather than via a
// filesystem-notification library (see DESIGN.md).
type LabelMapWatcher struct {
	path    string
	logger  LabelMapLogger
	current atomic.Pointer[LabelMap]

	mu      sync.Mutex
	modTime time.Time
}

// NewLabelMapWatcher loads path (if non-empty) and returns a watcher. An
// empty path yields a watcher whose Current() is always nil.
func NewLabelMapWatcher(path string, logger LabelMapLogger) *LabelMapWatcher {
	w := &LabelMapWatcher{path: path, logger: logger}
	if path != "" {
		w.reload()
	}
	return w
}

// Current returns the most recently loaded LabelMap, or nil if none is
// configured or the initial load failed.
func (w *LabelMapWatcher) Current() *LabelMap {
	return w.current.Load()
}

// CheckReload re-reads the label file if its mtime has advanced since the
// last load. Intended to be called from the same ticker that drives
// periodic discovery.
func (w *LabelMapWatcher) CheckReload() {
	if w.path == "" {
		return
	}
	info, err := os.Stat(w.path)
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("label map stat failed, keeping previous version", "path", w.path, "error", err)
		}
		return
	}

	w.mu.Lock()
	changed := info.ModTime().After(w.modTime)
	w.mu.Unlock()
	if !changed {
		return
	}
	w.reload()
}

func (w *LabelMapWatcher) reload() {
	lm, err := LoadLabelMap(w.path)
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("label map reload failed, keeping previous version", "path", w.path, "error", err)
		}
		return
	}
	info, statErr := os.Stat(w.path)
	w.mu.Lock()
	if statErr == nil {
		w.modTime = info.ModTime()
	}
	w.mu.Unlock()

	w.current.Store(lm)
	if w.logger != nil {
		w.logger.Info("label map loaded", "path", w.path, "labels", len(lm.Labels))
	}
}
