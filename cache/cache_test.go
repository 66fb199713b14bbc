package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/lunet-lang/lunet/pkg/bytecode"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func compileSource(t *testing.T, source string) *bytecode.Chunk {
	t.Helper()
	chunk, err := bytecode.Compile(source)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	return chunk
}

func TestKey(t *testing.T) {
	a := Key([]byte("print(1)"))
	b := Key([]byte("print(2)"))

	if len(a) != 64 {
		t.Errorf("Key length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Error("different sources share a key")
	}
	if a != Key([]byte("print(1)")) {
		t.Error("same source produced different keys")
	}
}

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deeply", "nested", "cache.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("parent directory was not created: %v", err)
	}
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)
	source := []byte("local a = 10\nprint(a)")
	chunk := compileSource(t, string(source))

	if _, hit, err := s.Get(source); err != nil || hit {
		t.Fatalf("Get() before Put = hit=%v err=%v, want miss", hit, err)
	}

	if err := s.Put(source, chunk); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, hit, err := s.Get(source)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !hit {
		t.Fatal("Get() missed after Put()")
	}
	if !bytes.Equal(got.Code, chunk.Code) {
		t.Errorf("cached Code = % X, want % X", got.Code, chunk.Code)
	}
	if got.LocalCount != chunk.LocalCount {
		t.Errorf("cached LocalCount = %d, want %d", got.LocalCount, chunk.LocalCount)
	}
}

func TestCachedChunkExecutes(t *testing.T) {
	s := openTestStore(t)
	source := []byte(`print "from cache"`)

	if err := s.Put(source, compileSource(t, string(source))); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	chunk, hit, err := s.Get(source)
	if err != nil || !hit {
		t.Fatalf("Get() = hit=%v err=%v", hit, err)
	}

	var out bytes.Buffer
	state := bytecode.NewExeState()
	state.Out = &out
	if err := state.Execute(chunk); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if out.String() != "from cache\n" {
		t.Errorf("output = %q, want %q", out.String(), "from cache\n")
	}
}

func TestPutReplacesExisting(t *testing.T) {
	s := openTestStore(t)
	source := []byte("x = 1")

	if err := s.Put(source, compileSource(t, "x = 1")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	// Same key, different chunk; second Put wins.
	replacement := compileSource(t, "x = 2")
	if err := s.Put(source, replacement); err != nil {
		t.Fatalf("second Put() error: %v", err)
	}

	got, hit, err := s.Get(source)
	if err != nil || !hit {
		t.Fatalf("Get() = hit=%v err=%v", hit, err)
	}
	if !bytes.Equal(got.Code, replacement.Code) {
		t.Error("Get() returned the original chunk, want the replacement")
	}

	n, err := s.Len()
	if err != nil {
		t.Fatalf("Len() error: %v", err)
	}
	if n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
}

func TestGetEvictsCorruptEntry(t *testing.T) {
	s := openTestStore(t)
	source := []byte("print(1)")

	// Plant garbage directly where the chunk should be.
	_, err := s.db.Exec(
		`INSERT INTO chunks (id, hash, data) VALUES (?, ?, ?)`,
		"corrupt", Key(source), []byte("not bytecode"),
	)
	if err != nil {
		t.Fatalf("planting corrupt row: %v", err)
	}

	_, hit, err := s.Get(source)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if hit {
		t.Error("Get() returned a corrupt entry as a hit")
	}

	n, err := s.Len()
	if err != nil {
		t.Fatalf("Len() error: %v", err)
	}
	if n != 0 {
		t.Errorf("Len() = %d after eviction, want 0", n)
	}
}

func TestLen(t *testing.T) {
	s := openTestStore(t)

	n, err := s.Len()
	if err != nil {
		t.Fatalf("Len() error: %v", err)
	}
	if n != 0 {
		t.Errorf("Len() = %d on empty store, want 0", n)
	}

	for _, src := range []string{"a = 1", "b = 2", "c = 3"} {
		if err := s.Put([]byte(src), compileSource(t, src)); err != nil {
			t.Fatalf("Put(%q) error: %v", src, err)
		}
	}

	n, err = s.Len()
	if err != nil {
		t.Fatalf("Len() error: %v", err)
	}
	if n != 3 {
		t.Errorf("Len() = %d, want 3", n)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	source := []byte(`print "persisted"`)

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := s.Put(source, compileSource(t, string(source))); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s.Close()

	_, hit, err := s.Get(source)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !hit {
		t.Error("Get() missed after reopening the store")
	}
}
