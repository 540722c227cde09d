package discovery

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type recordingLabelLogger struct {
	warnings []string
}

func (l *recordingLabelLogger) Warn(msg string, args ...any) { l.warnings = append(l.warnings, msg) }
func (l *recordingLabelLogger) Info(msg string, args ...any) {}

func writeLabelFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoadLabelMapParsesAllFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.json")
	writeLabelFile(t, path, `{
		"labels": {"254/56/1": "Kitchen"},
		"typeOverrides": {"254/203/10": "cover"},
		"entityIds": {"254/56/1": "kitchen_lights"},
		"exclude": ["254/56/99"]
	}`)

	lm, err := LoadLabelMap(path)
	if err != nil {
		t.Fatalf("LoadLabelMap() error = %v", err)
	}
	if name, ok := lm.Name("254/56/1"); !ok || name != "Kitchen" {
		t.Errorf("Name() = %q, %v", name, ok)
	}
	if ov, ok := lm.TypeOverride("254/203/10"); !ok || ov != "cover" {
		t.Errorf("TypeOverride() = %q, %v", ov, ok)
	}
	if id, ok := lm.EntityID("254/56/1"); !ok || id != "kitchen_lights" {
		t.Errorf("EntityID() = %q, %v", id, ok)
	}
	if !lm.Excluded("254/56/99") {
		t.Errorf("Excluded(254/56/99) = false, want true")
	}
	if lm.Excluded("254/56/1") {
		t.Errorf("Excluded(254/56/1) = true, want false")
	}
}

func TestNilLabelMapAccessorsAreSafe(t *testing.T) {
	var lm *LabelMap
	if lm.Excluded("x") {
		t.Errorf("Excluded() on nil map = true, want false")
	}
	if _, ok := lm.Name("x"); ok {
		t.Errorf("Name() on nil map ok = true, want false")
	}
	if _, ok := lm.TypeOverride("x"); ok {
		t.Errorf("TypeOverride() on nil map ok = true, want false")
	}
}

func TestLabelMapWatcherReloadsOnModTimeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.json")
	writeLabelFile(t, path, `{"labels": {"254/56/1": "Old Name"}}`)

	logger := &recordingLabelLogger{}
	w := NewLabelMapWatcher(path, logger)

	if name, _ := w.Current().Name("254/56/1"); name != "Old Name" {
		t.Fatalf("initial Name() = %q, want %q", name, "Old Name")
	}

	future := time.Now().Add(time.Hour)
	writeLabelFile(t, path, `{"labels": {"254/56/1": "New Name"}}`)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	w.CheckReload()
	if name, _ := w.Current().Name("254/56/1"); name != "New Name" {
		t.Errorf("Name() after reload = %q, want %q", name, "New Name")
	}
}

func TestLabelMapWatcherWithEmptyPathHasNilCurrent(t *testing.T) {
	w := NewLabelMapWatcher("", nil)
	if w.Current() != nil {
		t.Errorf("Current() = %v, want nil", w.Current())
	}
}
