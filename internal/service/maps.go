package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/alde1022/spatix/internal/mapcfg"
)

// ErrMapNotFound is returned for unknown map IDs.
var ErrMapNotFound = errors.New("map not found")

// ErrBadDeleteToken rejects a delete attempt with the wrong token.
var ErrBadDeleteToken = errors.New("invalid delete token")

// MapRecord is a persisted map: its configuration plus bookkeeping.
type MapRecord struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title,omitempty"`
	Description string                  `json:"description,omitempty"`
	Config      mapcfg.MapConfiguration `json:"config"`
	Views       int64                   `json:"views"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	DeleteToken string                  `json:"delete_token,omitempty"`
}

// Public strips fields a viewer must not see.
func (r MapRecord) Public() MapRecord {
	r.DeleteToken = ""
	return r
}

// MapService manages persisted maps, one JSON file per map under
// dataDir/maps.
type MapService struct {
	dataDir string
	maps    map[string]MapRecord
	stats   *StatsService
	mu      sync.RWMutex
}

// NewMapService creates a map service, loading any maps already on disk.
// stats may be nil when DuckDB is disabled.
func NewMapService(dataDir string, stats *StatsService) *MapService {
	s := &MapService{
		dataDir: dataDir,
		maps:    make(map[string]MapRecord),
		stats:   stats,
	}
	s.loadFromDisk()
	return s
}

// Create validates and stores a new map, minting its ID and delete token.
func (s *MapService) Create(title, description string, cfg mapcfg.MapConfiguration) (MapRecord, error) {
	if err := cfg.Validate(); err != nil {
		return MapRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.newID()
	if err != nil {
		return MapRecord{}, err
	}
	token, err := randomToken(16)
	if err != nil {
		return MapRecord{}, err
	}

	now := time.Now().UTC()
	rec := MapRecord{
		ID:          id,
		Title:       title,
		Description: description,
		Config:      cfg,
		CreatedAt:   now,
		UpdatedAt:   now,
		DeleteToken: token,
	}
	s.maps[id] = rec
	if err := s.saveToDisk(rec); err != nil {
		delete(s.maps, id)
		return MapRecord{}, err
	}

	if s.stats != nil {
		s.stats.RecordCreated(rec)
	}
	DefaultBus.Publish(Event{Resource: "maps", Action: ActionCreated, ID: id})
	return rec, nil
}

// Get returns a map by ID.
func (s *MapService) Get(id string) (MapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.maps[id]
	if !ok {
		return MapRecord{}, ErrMapNotFound
	}
	return rec, nil
}

// Update replaces a map's configuration and metadata. Empty title or
// description leaves the stored value alone.
func (s *MapService) Update(id, title, description string, cfg mapcfg.MapConfiguration) (MapRecord, error) {
	if err := cfg.Validate(); err != nil {
		return MapRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.maps[id]
	if !ok {
		return MapRecord{}, ErrMapNotFound
	}
	if title != "" {
		rec.Title = title
	}
	if description != "" {
		rec.Description = description
	}
	rec.Config = cfg
	rec.UpdatedAt = time.Now().UTC()
	s.maps[id] = rec
	if err := s.saveToDisk(rec); err != nil {
		return MapRecord{}, err
	}

	DefaultBus.Publish(Event{Resource: "maps", Action: ActionUpdated, ID: id})
	return rec, nil
}

// IncrementViews bumps a map's view counter and persists it.
func (s *MapService) IncrementViews(id string) (MapRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.maps[id]
	if !ok {
		return MapRecord{}, ErrMapNotFound
	}
	rec.Views++
	s.maps[id] = rec
	if err := s.saveToDisk(rec); err != nil {
		return MapRecord{}, err
	}

	if s.stats != nil {
		s.stats.RecordView(id)
	}
	return rec, nil
}

// Delete removes a map after verifying its delete token.
func (s *MapService) Delete(id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.maps[id]
	if !ok {
		return ErrMapNotFound
	}
	if rec.DeleteToken == "" ||
		subtle.ConstantTimeCompare([]byte(rec.DeleteToken), []byte(token)) != 1 {
		return ErrBadDeleteToken
	}

	delete(s.maps, id)
	if err := os.Remove(s.mapFile(id)); err != nil && !os.IsNotExist(err) {
		return err
	}

	DefaultBus.Publish(Event{Resource: "maps", Action: ActionDeleted, ID: id})
	return nil
}

// List returns all maps without their delete tokens, newest first.
func (s *MapService) List() []MapRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]MapRecord, 0, len(s.maps))
	for _, rec := range s.maps {
		out = append(out, rec.Public())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Count returns the number of stored maps.
func (s *MapService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.maps)
}

func (s *MapService) mapsDir() string {
	return filepath.Join(s.dataDir, "maps")
}

func (s *MapService) mapFile(id string) string {
	return filepath.Join(s.mapsDir(), id+".json")
}

func (s *MapService) loadFromDisk() {
	entries, err := os.ReadDir(s.mapsDir())
	if err != nil {
		return // Directory doesn't exist yet, start empty
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.mapsDir(), e.Name()))
		if err != nil {
			continue
		}
		var rec MapRecord
		if err := json.Unmarshal(data, &rec); err != nil || rec.ID == "" {
			continue // Invalid JSON, skip the file
		}
		s.maps[rec.ID] = rec
	}
}

func (s *MapService) saveToDisk(rec MapRecord) error {
	if err := os.MkdirAll(s.mapsDir(), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.mapFile(rec.ID), data, 0644)
}

// newID mints an 8-character URL-safe ID, retrying on collision. Caller
// holds the lock.
func (s *MapService) newID() (string, error) {
	for i := 0; i < 10; i++ {
		id, err := randomToken(6)
		if err != nil {
			return "", err
		}
		id = id[:8]
		if _, taken := s.maps[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique map ID")
}

func randomToken(nbytes int) (string, error) {
	buf := make([]byte, nbytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
