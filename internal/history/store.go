package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"frames-ai/internal/llm"
)

// ErrMalformed is returned by Load when the session file exists but cannot be
// turned back into a Session. The file is left untouched.
var ErrMalformed = errors.New("malformed session file")

// Store persists a Session between runs.
type Store interface {
	Load() (Session, error)
	Persist(s Session) error
}

type record struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FileStore keeps the session as an indented JSON array of role/content
// records. Writes go to a temp file in the same directory and are renamed
// over the target.
type FileStore struct {
	path     string
	preamble string
}

func NewFileStore(path, preamble string) *FileStore {
	return &FileStore{path: path, preamble: preamble}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load() (Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(f.preamble), nil
		}
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	s, err := Decode(data)
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", f.path, err)
	}
	return s, nil
}

const sessionFileMode = 0o644

func (f *FileStore) Persist(s Session) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session: %w", err)
	}
	// CreateTemp opens with 0600; the session file is shared like the journal.
	if err := tmp.Chmod(sessionFileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// Backup copies the persisted file into dir under a timestamped name and
// returns the new path. A missing session file is not an error; the empty
// path is returned.
func (f *FileStore) Backup(dir string, now time.Time) (string, error) {
	src, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("open session: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backup dir: %w", err)
	}

	base := filepath.Base(f.path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dst := filepath.Join(dir, fmt.Sprintf("%s-%s.json", stem, now.UTC().Format("20060102T150405Z")))

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", fmt.Errorf("copy backup: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close backup: %w", err)
	}
	return dst, nil
}

// Encode renders s in the persisted format. Output is deterministic.
func Encode(s Session) ([]byte, error) {
	records := make([]record, 0, len(s.messages))
	for _, m := range s.messages {
		records = append(records, record{Role: string(m.Role), Content: m.Content})
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses the persisted format. Errors wrap ErrMalformed.
func Decode(data []byte) (Session, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) == 0 {
		return Session{}, fmt.Errorf("%w: no messages", ErrMalformed)
	}
	msgs := make([]llm.Message, 0, len(records))
	for i, r := range records {
		role, err := llm.ParseRole(r.Role)
		if err != nil {
			return Session{}, fmt.Errorf("%w: message %d: %v", ErrMalformed, i, err)
		}
		msgs = append(msgs, llm.NewMessage(role, r.Content))
	}
	if msgs[0].Role != llm.RoleSystem {
		return Session{}, fmt.Errorf("%w: first message is %q, want system preamble", ErrMalformed, msgs[0].Role)
	}
	return Session{messages: msgs}, nil
}
