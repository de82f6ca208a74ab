package credstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/model"
)

// Record is a locally stored credential. It predates the relational Users
// table, so the field names follow the legacy file format: ids are UUIDs and
// is_active is a string ("1", "true", "" all mean active).
type Record struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"password_hash"`
	IsActive     string    `json:"is_active"`
	IsAdmin      bool      `json:"is_admin"`
	DepartmentID string    `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizedEmail returns the email in the canonical comparison form.
func (r *Record) NormalizedEmail() string {
	return model.NormalizeEmail(r.Email)
}

// Active coerces the legacy tri-state is_active string to a real boolean.
// Only an explicit "0" or "false" deactivates the record.
func (r *Record) Active() bool {
	switch r.IsActive {
	case "0", "false":
		return false
	default:
		return true
	}
}

// Store persists credential records in a single JSON document. Every
// operation takes the store lock for the full read-modify-write cycle, so at
// most one writer runs at a time and readers never observe a partial write.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the given file, creating its directory
// when needed.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create credential dir: %w", err)
		}
	}
	return &Store{path: path}, nil
}

// FindByEmail returns the record with the given email, or nil when absent.
// Comparison is case-insensitive.
func (s *Store) FindByEmail(email string) (*Record, error) {
	if email == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	normalized := model.NormalizeEmail(email)
	for i := range records {
		if records[i].NormalizedEmail() == normalized {
			rec := records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

// EmailExists reports whether a record with the given email exists.
func (s *Store) EmailExists(email string) (bool, error) {
	rec, err := s.FindByEmail(email)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Add upserts a record: any existing record with the same normalized email is
// replaced. A zero ID is assigned before writing.
func (s *Store) Add(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	normalized := rec.NormalizedEmail()
	kept := records[:0]
	for _, existing := range records {
		if existing.NormalizedEmail() != normalized {
			kept = append(kept, existing)
		}
	}
	kept = append(kept, rec)

	return s.save(kept)
}

// GetAll returns every stored record.
func (s *Store) GetAll() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load reads the whole collection. A missing file is an empty collection.
func (s *Store) load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credential file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode credential file: %w", err)
	}
	return records, nil
}

// save replaces the whole file with the serialized collection.
func (s *Store) save(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return nil
}
