package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Entry indexes one persisted artifact.
type Entry struct {
	ID             string    `json:"id"`
	RunID          string    `json:"run_id"`
	Family         string    `json:"family"` // report, dataset, baseline
	Path           string    `json:"path"`
	Bytes          int64     `json:"bytes"`
	ChecksumSHA256 string    `json:"checksum_sha256"`
	CreatedAt      time.Time `json:"created_at"`
	Version        string    `json:"version,omitempty"`
}

// Manifest is the on-disk index of every artifact the store has written.
type Manifest struct {
	Version     string  `json:"version"`
	GeneratedAt string  `json:"generated_at"`
	Entries     []Entry `json:"entries"`
}

// Store persists calibration outputs as checksummed JSON files under a
// root directory, indexed by a manifest that is replaced atomically on
// every write.
type Store struct {
	root         string
	manifestPath string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &Store{root: dir, manifestPath: filepath.Join(dir, "manifest.json")}, nil
}

// NewRunID mints an identifier for a calibration run.
func NewRunID() string {
	return "run-" + uuid.NewString()
}

// Write persists payload as <family>/<runID>.json, checksums it, and
// appends an entry to the manifest. Returns the recorded entry.
func (s *Store) Write(runID, family, version string, payload any) (Entry, error) {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("encode %s artifact: %w", family, err)
	}

	dir := filepath.Join(s.root, family)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("create %s dir: %w", family, err)
	}

	path := filepath.Join(dir, runID+".json")
	if err := atomicWrite(path, raw); err != nil {
		return Entry{}, err
	}

	sum := sha256.Sum256(raw)
	entry := Entry{
		ID:             uuid.NewString(),
		RunID:          runID,
		Family:         family,
		Path:           path,
		Bytes:          int64(len(raw)),
		ChecksumSHA256: hex.EncodeToString(sum[:]),
		CreatedAt:      time.Now().UTC(),
		Version:        version,
	}

	if err := s.appendEntry(entry); err != nil {
		return Entry{}, err
	}

	log.Debug().
		Str("run_id", runID).
		Str("family", family).
		Int64("bytes", entry.Bytes).
		Msg("artifact written")

	return entry, nil
}

// Read loads and verifies an artifact into out. A checksum mismatch is
// an error: a corrupted report must never be trusted silently.
func (s *Store) Read(entry Entry, out any) error {
	raw, err := os.ReadFile(entry.Path)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", entry.ID, err)
	}
	sum := sha256.Sum256(raw)
	if hex.EncodeToString(sum[:]) != entry.ChecksumSHA256 {
		return fmt.Errorf("artifact %s: checksum mismatch", entry.ID)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode artifact %s: %w", entry.ID, err)
	}
	return nil
}

// Manifest loads the current index. A missing manifest is an empty one.
func (s *Store) Manifest() (Manifest, error) {
	raw, err := os.ReadFile(s.manifestPath)
	if os.IsNotExist(err) {
		return Manifest{Version: "1"}, nil
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// Latest returns the most recent entry for a family, or nil.
func (s *Store) Latest(family string) (*Entry, error) {
	m, err := s.Manifest()
	if err != nil {
		return nil, err
	}
	var latest *Entry
	for i := range m.Entries {
		e := &m.Entries[i]
		if e.Family != family {
			continue
		}
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}
	return latest, nil
}

func (s *Store) appendEntry(entry Entry) error {
	m, err := s.Manifest()
	if err != nil {
		return err
	}
	m.Entries = append(m.Entries, entry)
	m.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	if m.Version == "" {
		m.Version = "1"
	}

	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return atomicWrite(s.manifestPath, raw)
}

// atomicWrite lands data via a temp file and rename so a crash never
// leaves a half-written artifact behind.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
