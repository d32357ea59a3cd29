package mockstore

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/getmockd/mockstore/internal/id"
	"github.com/getmockd/mockstore/pkg/logging"
)

// Store holds generated and overridden records keyed by (type name, id).
type Store struct {
	mu       sync.RWMutex
	records  map[Key]Record
	registry *Registry
	schema   SchemaDescriptor
	policy   FieldPolicy
	keyField string
	autoMock bool
	observer Observer
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithRegistry sets the generator registry. New creates an empty one otherwise.
func WithRegistry(r *Registry) Option {
	return func(s *Store) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithSchema attaches a schema descriptor used for field completion and
// auto-mocking.
func WithSchema(schema SchemaDescriptor) Option {
	return func(s *Store) {
		s.schema = schema
	}
}

// WithFieldPolicy sets the policy for schema fields a generator leaves unset.
func WithFieldPolicy(p FieldPolicy) Option {
	return func(s *Store) {
		s.policy = p
	}
}

// WithKeyField sets the record field that carries the entity id.
func WithKeyField(field string) Option {
	return func(s *Store) {
		if field != "" {
			s.keyField = field
		}
	}
}

// WithAutoMock lets object types known to the schema but absent from the
// registry be generated from schema defaults.
func WithAutoMock(enabled bool) Option {
	return func(s *Store) {
		s.autoMock = enabled
	}
}

// WithObserver sets the observer notified of store operations.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{
		records:  make(map[Key]Record),
		registry: NewRegistry(),
		keyField: DefaultKeyField,
		observer: NoopObserver{},
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the store's generator registry.
func (s *Store) Registry() *Registry {
	return s.registry
}

// KeyField returns the record field that carries the entity id.
func (s *Store) KeyField() string {
	return s.keyField
}

// Get returns the record for (typeName, id), generating and persisting it on
// first access. The returned record is a copy.
func (s *Store) Get(typeName, id string) (Record, error) {
	start := time.Now()
	key := Key{TypeName: typeName, ID: id}

	s.mu.RLock()
	rec, ok := s.records[key]
	if ok {
		out := rec.Clone()
		s.mu.RUnlock()
		s.observer.OnGet(key, true, time.Since(start))
		return out, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, generated, err := s.getOrGenerateLocked(key)
	if err != nil {
		s.observer.OnError("get", key, err)
		return nil, err
	}
	s.observer.OnGet(key, !generated, time.Since(start))
	return rec.Clone(), nil
}

// Set shallow-merges partial into the record for (typeName, id), generating
// the record first if it does not exist. The key field is never overwritten.
func (s *Store) Set(typeName, id string, partial Record) error {
	start := time.Now()
	key := Key{TypeName: typeName, ID: id}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setLocked(key, partial); err != nil {
		s.observer.OnError("set", key, err)
		return err
	}
	s.observer.OnSet(key, len(partial), time.Since(start))
	return nil
}

// Create stores a record built from partial. The id comes from partial's key
// field when present; otherwise a UUID is generated. When a record with that
// id already exists, partial is merged into it exactly as Set would and no
// error is returned. Returns a copy of the stored record.
func (s *Store) Create(typeName string, partial Record) (Record, error) {
	start := time.Now()
	entityID := id.UUID()
	if v, ok := partial[s.keyField]; ok && v != nil {
		entityID = fmt.Sprint(v)
	}
	key := Key{TypeName: typeName, ID: entityID}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setLocked(key, partial); err != nil {
		s.observer.OnError("create", key, err)
		return nil, err
	}
	s.observer.OnSet(key, len(partial), time.Since(start))
	return s.records[key].Clone(), nil
}

// Has reports whether a record exists without triggering generation.
func (s *Store) Has(typeName, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[Key{TypeName: typeName, ID: id}]
	return ok
}

// Delete removes a record. Returns *NotFoundError if it does not exist.
func (s *Store) Delete(typeName, id string) error {
	key := Key{TypeName: typeName, ID: id}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; !ok {
		err := &NotFoundError{TypeName: typeName, ID: id}
		s.observer.OnError("delete", key, err)
		return err
	}
	delete(s.records, key)
	s.observer.OnDelete(key)
	return nil
}

// Reset removes all records. Registered generators are kept.
func (s *Store) Reset() {
	s.mu.Lock()
	cleared := len(s.records)
	s.records = make(map[Key]Record)
	s.mu.Unlock()

	s.logger.Debug("mock store reset", "cleared", cleared)
	s.observer.OnReset(cleared)
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Keys returns all record keys sorted by type name, then id.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	keys := make([]Key, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].TypeName != keys[j].TypeName {
			return keys[i].TypeName < keys[j].TypeName
		}
		return keys[i].ID < keys[j].ID
	})
	return keys
}

// Overview returns record counts per type.
func (s *Store) Overview() *Overview {
	s.mu.RLock()
	types := make(map[string]int)
	for k := range s.records {
		types[k.TypeName]++
	}
	total := len(s.records)
	s.mu.RUnlock()

	return &Overview{
		Records:  total,
		Types:    types,
		TypeList: s.registry.Types(),
	}
}

// CanGenerate reports whether Get would be able to create a record of typeName.
func (s *Store) CanGenerate(typeName string) bool {
	return s.canGenerate(typeName)
}

func (s *Store) canGenerate(typeName string) bool {
	if s.registry.Has(typeName) {
		return true
	}
	if !s.autoMock || s.schema == nil {
		return false
	}
	_, ok := s.schema.ObjectFields(typeName)
	return ok
}

// setLocked merges partial into the record for key. Caller holds s.mu.
func (s *Store) setLocked(key Key, partial Record) error {
	rec, _, err := s.getOrGenerateLocked(key)
	if err != nil {
		return err
	}
	for field, v := range partial {
		if field == s.keyField {
			continue
		}
		rec[field] = cloneValue(v)
	}
	return nil
}

// getOrGenerateLocked returns the stored record for key, generating it when
// absent. generated is true only when this call created the record. The
// returned record is the stored map itself. Caller holds s.mu.
func (s *Store) getOrGenerateLocked(key Key) (rec Record, generated bool, err error) {
	if rec, ok := s.records[key]; ok {
		return rec, false, nil
	}

	start := time.Now()
	gen, policy, err := s.generatorFor(key.TypeName)
	if err != nil {
		return nil, false, err
	}

	rec = gen(GenerateContext{TypeName: key.TypeName, ID: key.ID}).Clone()
	if rec == nil {
		rec = Record{}
	}
	rec[s.keyField] = key.ID

	if err := s.complete(key, rec, policy); err != nil {
		return nil, false, err
	}

	s.records[key] = rec
	s.logger.Debug("generated mock record", "type", key.TypeName, "id", key.ID, "fields", len(rec))
	s.observer.OnGenerate(key, time.Since(start))
	return rec, true, nil
}

// generatorFor resolves the generator for typeName along with the field
// policy that applies to its output. Auto-mocked types always use defaults.
func (s *Store) generatorFor(typeName string) (Generator, FieldPolicy, error) {
	gen, err := s.registry.Resolve(typeName)
	if err == nil {
		return gen, s.policy, nil
	}
	if s.autoMock && s.schema != nil {
		if _, ok := s.schema.ObjectFields(typeName); ok {
			return func(GenerateContext) Record { return Record{} }, FieldPolicyDefault, nil
		}
	}
	return nil, s.policy, err
}
