package ratelimit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type memStorage struct {
	data map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{data: map[string]string{}}
}

func (s *memStorage) Get(key string) (string, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *memStorage) Set(key, value string) error {
	s.data[key] = value
	return nil
}

func newTestLimiter(storage Storage, now time.Time) *Limiter {
	l := NewLimiter(storage, DefaultKey, DefaultCooldown)
	l.now = func() time.Time { return now }
	return l
}

func TestNoPriorRecordAllowsSubmission(t *testing.T) {
	l := newTestLimiter(newMemStorage(), time.Now())

	if !l.CanSubmit("sparks-lake") {
		t.Error("expected submission to be allowed with no prior record")
	}
	if got := l.TimeUntilAllowed("sparks-lake"); got != 0 {
		t.Errorf("TimeUntilAllowed = %v, want 0", got)
	}
}

func TestRecordBlocksFollowingSubmission(t *testing.T) {
	now := time.Now()
	l := newTestLimiter(newMemStorage(), now)

	if err := l.Record("sparks-lake"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if l.CanSubmit("sparks-lake") {
		t.Error("expected submission to be blocked right after Record")
	}

	remaining := l.TimeUntilAllowed("sparks-lake")
	if remaining < DefaultCooldown-time.Second || remaining > DefaultCooldown {
		t.Errorf("TimeUntilAllowed = %v, want roughly %v", remaining, DefaultCooldown)
	}

	// Other locations are unaffected.
	if !l.CanSubmit("elk-lake") {
		t.Error("expected other locations to remain submittable")
	}
}

func TestExpiredRecordAllowsSubmission(t *testing.T) {
	storage := newMemStorage()
	now := time.Now()
	blob, _ := json.Marshal(map[string]int64{
		"sparks-lake": now.Add(-61 * time.Minute).UnixMilli(),
	})
	storage.data[DefaultKey] = string(blob)

	l := newTestLimiter(storage, now)

	if !l.CanSubmit("sparks-lake") {
		t.Error("expected submission to be allowed after the cooldown expired")
	}
	if got := l.TimeUntilAllowed("sparks-lake"); got != 0 {
		t.Errorf("TimeUntilAllowed = %v, want 0", got)
	}
}

func TestExactCooldownBoundaryStillBlocked(t *testing.T) {
	storage := newMemStorage()
	now := time.Now().Truncate(time.Millisecond)
	blob, _ := json.Marshal(map[string]int64{
		"sparks-lake": now.Add(-DefaultCooldown).UnixMilli(),
	})
	storage.data[DefaultKey] = string(blob)

	l := newTestLimiter(storage, now)

	if l.CanSubmit("sparks-lake") {
		t.Error("expected submission at exactly the cooldown boundary to be blocked")
	}
}

func TestCorruptBlobFailsOpen(t *testing.T) {
	for i, raw := range []string{"not json at all", `{"sparks-lake":"yesterday"}`, `[]`} {
		storage := newMemStorage()
		storage.data[DefaultKey] = raw

		l := newTestLimiter(storage, time.Now())

		if !l.CanSubmit("sparks-lake") {
			t.Errorf("case %d: corrupt blob should read as no prior submissions", i)
		}
		if got := l.TimeUntilAllowed("sparks-lake"); got != 0 {
			t.Errorf("case %d: TimeUntilAllowed = %v, want 0", i, got)
		}
	}
}

func TestRecordOverwritesPreviousTimestamp(t *testing.T) {
	storage := newMemStorage()
	now := time.Now()
	l := newTestLimiter(storage, now.Add(-2*time.Hour))

	if err := l.Record("sparks-lake"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	// Two hours later the old record has expired; a fresh Record blocks
	// again.
	l.now = func() time.Time { return now }
	if !l.CanSubmit("sparks-lake") {
		t.Fatal("expected old record to have expired")
	}
	if err := l.Record("sparks-lake"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if l.CanSubmit("sparks-lake") {
		t.Error("expected fresh record to block submission")
	}
}

func TestFileStoragePersistsAcrossLimiters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.json")
	now := time.Now()

	first := newTestLimiter(NewFileStorage(path), now)
	if err := first.Record("tumalo-falls"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	second := newTestLimiter(NewFileStorage(path), now)
	if second.CanSubmit("tumalo-falls") {
		t.Error("expected record to persist across limiter instances")
	}
}

func TestFileStorageCorruptFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.json")
	if err := os.WriteFile(path, []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := newTestLimiter(NewFileStorage(path), time.Now())
	if !l.CanSubmit("tumalo-falls") {
		t.Error("expected corrupt file to read as no prior submissions")
	}
	if err := l.Record("tumalo-falls"); err != nil {
		t.Errorf("Record over a corrupt file failed: %v", err)
	}
}

func TestManyLocationsShareOneBlob(t *testing.T) {
	storage := newMemStorage()
	l := newTestLimiter(storage, time.Now())

	for i := 0; i < 5; i++ {
		if err := l.Record(fmt.Sprintf("spot-%d", i)); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	if len(storage.data) != 1 {
		t.Errorf("expected a single storage key, got %d", len(storage.data))
	}
	limits := map[string]int64{}
	if err := json.Unmarshal([]byte(storage.data[DefaultKey]), &limits); err != nil {
		t.Fatalf("stored blob is not valid JSON: %v", err)
	}
	if len(limits) != 5 {
		t.Errorf("expected 5 locations in the blob, got %d", len(limits))
	}
}
