package mappings

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned by Load when no mapping with the requested name
// exists.
var ErrNotFound = errors.New("mapping not found")

var bucketName = []byte("mappings")

// ColumnPair binds a source field name to a target column name.
type ColumnPair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Mapping is a reusable sync configuration: the target table, the key pair
// and the column pairs, plus the field and column sets it was built against
// so compatibility with a new file or table can be checked up front.
type Mapping struct {
	Name      string       `json:"-"`
	Schema    string       `json:"schema,omitempty"`
	Table     string       `json:"table"`
	KeySource string       `json:"key_source"`
	KeyTarget string       `json:"key_target"`
	Columns   []ColumnPair `json:"columns"`

	// RequiredSourceFields and RequiredTargetColumns record the environment
	// the mapping was saved under.
	RequiredSourceFields  []string  `json:"required_source_fields,omitempty"`
	RequiredTargetColumns []string  `json:"required_target_columns,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// Store persists named mappings in a local bbolt file.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the mappings database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open mappings store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize mappings store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes a mapping under its name, overwriting any previous version.
// A zero CreatedAt is stamped with the current time.
func (s *Store) Save(m Mapping) error {
	if m.Name == "" {
		return errors.New("mapping name is required")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode mapping %q: %w", m.Name, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(m.Name), data)
	})
}

// Load returns the mapping saved under name, or ErrNotFound.
func (s *Store) Load(name string) (*Mapping, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketName).Get([]byte(name)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode mapping %q: %w", name, err)
	}
	m.Name = name
	return &m, nil
}

// Delete removes the mapping saved under name. It reports whether a mapping
// was actually deleted.
func (s *Store) Delete(name string) (bool, error) {
	deleted := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(name)) == nil {
			return nil
		}
		deleted = true
		return b.Delete([]byte(name))
	})
	return deleted, err
}

// ListNames returns the names of all saved mappings in key order.
func (s *Store) ListNames() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			names = append(names, string(k))
		}
		return nil
	})
	return names, err
}

// CompatibleNames returns the names of all saved mappings that can be used
// against the given schema-qualified table, source fields and target columns.
func (s *Store) CompatibleNames(schema, table string, sourceFields, targetColumns []string) ([]string, error) {
	names, err := s.ListNames()
	if err != nil {
		return nil, err
	}

	var compatible []string
	for _, name := range names {
		m, err := s.Load(name)
		if err != nil {
			return nil, err
		}
		if m.Compatible(schema, table, sourceFields, targetColumns) {
			compatible = append(compatible, name)
		}
	}
	return compatible, nil
}

// Compatible reports whether the mapping can be used against the given table
// with the given source fields and target columns: the full schema-qualified
// table identity must match and every recorded required field/column must be
// present.
func (m *Mapping) Compatible(schema, table string, sourceFields, targetColumns []string) bool {
	if m.Schema != schema || m.Table != table {
		return false
	}
	if !containsAll(sourceFields, m.RequiredSourceFields) {
		return false
	}
	return containsAll(targetColumns, m.RequiredTargetColumns)
}

func containsAll(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}
