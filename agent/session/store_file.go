package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type FileStoreConfig struct {
	Dir string `envconfig:"DIR" split_words:"true" default:"logs"`
}

// FileStore writes each transcript as an indented JSON document under Dir.
type FileStore struct {
	dir string
	now func() time.Time
}

var _ Store = (*FileStore)(nil)

func NewFileStore(cfg FileStoreConfig) *FileStore {
	dir := cfg.Dir
	if dir == "" {
		dir = "logs"
	}
	return &FileStore{
		dir: dir,
		now: time.Now,
	}
}

func (s *FileStore) Save(_ context.Context, t *Transcript) (string, error) {
	if t == nil {
		return "", fmt.Errorf("nil transcript")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}

	// The timestamp alone has second granularity; the random suffix keeps
	// two saves for one customer within the same second from colliding.
	filename := fmt.Sprintf("conversation_%s_%s_%s.json",
		t.CustomerID, s.now().Format("20060102_150405"), uuid.NewString()[:8])
	path := filepath.Join(s.dir, filename)

	payload, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}

func (s *FileStore) Load(_ context.Context, ref string) (*Transcript, error) {
	raw, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var t Transcript
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return &t, nil
}
