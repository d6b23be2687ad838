package history

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"frames-ai/internal/llm"
)

func sampleSession() Session {
	return New("You are a helpful assistant.").Append(
		llm.NewMessage(llm.RoleUser, "What is <b>bold</b> & \"quoted\"?"),
		llm.NewMessage(llm.RoleAssistant, "Markup.\nTwo lines."),
		llm.NewMessage(llm.RoleUser, "pixelate zeus.png"),
		llm.NewMessage(llm.RoleSystem, "🩰 Pixelated image saved as pixelated_zeus.png"),
	)
}

func TestFileStore_LoadMissingReturnsPreamble(t *testing.T) {
	st := NewFileStore(filepath.Join(t.TempDir(), "memory.json"), "persona")

	s, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 1 || s.Preamble() != "persona" {
		t.Fatalf("unexpected fresh session: %+v", s.Messages())
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "memory.json")
	st := NewFileStore(p, "")

	want := sampleSession()
	if err := st.Persist(want); err != nil {
		t.Fatalf("persist: %v", err)
	}
	got, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(want.Messages(), got.Messages()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStore_PersistIsIdempotent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "memory.json")
	st := NewFileStore(p, "")
	s := sampleSession()

	if err := st.Persist(s); err != nil {
		t.Fatalf("persist1: %v", err)
	}
	first, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read1: %v", err)
	}
	if err := st.Persist(s); err != nil {
		t.Fatalf("persist2: %v", err)
	}
	second, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read2: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("persist not idempotent:\n%s\n---\n%s", first, second)
	}
}

func TestFileStore_PersistLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	st := NewFileStore(filepath.Join(dir, "memory.json"), "")
	if err := st.Persist(sampleSession()); err != nil {
		t.Fatalf("persist: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "memory.json" {
		t.Fatalf("unexpected dir contents: %v", entries)
	}
}

func TestFileStore_PersistFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	st := NewFileStore(path, "")
	for i := 0; i < 2; i++ {
		if err := st.Persist(sampleSession()); err != nil {
			t.Fatalf("persist: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if got := info.Mode().Perm(); got != 0o644 {
			t.Fatalf("mode = %o, want 644", got)
		}
	}
}

func TestFileStore_PersistedFormat(t *testing.T) {
	p := filepath.Join(t.TempDir(), "memory.json")
	st := NewFileStore(p, "")
	s := New("sys").Append(llm.NewMessage(llm.RoleUser, "a < b"))
	if err := st.Persist(s); err != nil {
		t.Fatalf("persist: %v", err)
	}
	data, _ := os.ReadFile(p)
	want := "[\n  {\n    \"role\": \"system\",\n    \"content\": \"sys\"\n  },\n  {\n    \"role\": \"user\",\n    \"content\": \"a < b\"\n  }\n]\n"
	if string(data) != want {
		t.Fatalf("unexpected format:\n%s", data)
	}
}

func TestFileStore_LoadMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "{{{"},
		{"object", `{"role":"system","content":"x"}`},
		{"empty array", `[]`},
		{"empty file", ``},
		{"unknown role", `[{"role":"system","content":"x"},{"role":"wizard","content":"y"}]`},
		{"no preamble", `[{"role":"user","content":"x"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "memory.json")
			if err := os.WriteFile(p, []byte(tt.body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := NewFileStore(p, "").Load()
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("want ErrMalformed, got %v", err)
			}
			data, _ := os.ReadFile(p)
			if string(data) != tt.body {
				t.Fatalf("malformed file was modified")
			}
		})
	}
}

func TestFileStore_LoadLegacyRoles(t *testing.T) {
	p := filepath.Join(t.TempDir(), "memory.json")
	body := `[{"role":"System","content":"x"},{"role":"user","content":"hi"},{"role":"system","content":"reply"}]`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := NewFileStore(p, "").Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 3 || s.Messages()[2].Role != llm.RoleSystem {
		t.Fatalf("unexpected session: %+v", s.Messages())
	}
}

func TestFileStore_Backup(t *testing.T) {
	dir := t.TempDir()
	st := NewFileStore(filepath.Join(dir, "memory.json"), "")

	path, err := st.Backup(filepath.Join(dir, "backups"), time.Now())
	if err != nil || path != "" {
		t.Fatalf("backup of missing file: path=%q err=%v", path, err)
	}

	if err := st.Persist(sampleSession()); err != nil {
		t.Fatalf("persist: %v", err)
	}
	now := time.Date(2025, 11, 7, 21, 0, 0, 0, time.UTC)
	path, err = st.Backup(filepath.Join(dir, "backups"), now)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if !strings.HasSuffix(path, "memory-20251107T210000Z.json") {
		t.Fatalf("unexpected backup name: %s", path)
	}
	orig, _ := os.ReadFile(st.Path())
	copied, _ := os.ReadFile(path)
	if !bytes.Equal(orig, copied) {
		t.Fatalf("backup content differs")
	}
}
