package editor

import (
	"sync"
	"time"

	"github.com/alde1022/spatix/internal/draw"
	"github.com/alde1022/spatix/internal/logging"
	"github.com/alde1022/spatix/internal/mapcfg"
	"github.com/alde1022/spatix/internal/render"
	"github.com/alde1022/spatix/internal/service"
)

// NewMapID is the session key for a map that has not been published yet.
const NewMapID = "new"

// Session is one user's in-progress edit of a map: its layer list, the
// drawing overlay over it, and a live render handle kept in sync so the
// style document always matches the working state.
type Session struct {
	mu sync.Mutex

	MapID   string
	Title   string
	Layers  *mapcfg.LayerList
	Overlay *draw.Overlay
	Doc     *render.StyleDocument
	Handle  *render.Handle

	Basemap  mapcfg.Basemap
	Viewport mapcfg.Viewport
	Markers  []mapcfg.Marker

	touched time.Time
}

func newSession(mapID string) *Session {
	layers := mapcfg.NewLayerList()
	doc := render.NewStyleDocument(mapID)
	return &Session{
		MapID:   mapID,
		Layers:  layers,
		Overlay: draw.NewOverlay(layers),
		Doc:     doc,
		Handle:  render.Attach(doc),
		Basemap: mapcfg.BasemapLight,
		touched: time.Now(),
	}
}

// Config assembles the session's working state into a configuration.
func (s *Session) Config() mapcfg.MapConfiguration {
	return mapcfg.MapConfiguration{
		Basemap:  s.Basemap,
		Viewport: s.Viewport,
		Markers:  s.Markers,
		Layers:   s.Layers.Snapshot(),
	}
}

// Sync pushes the working state to the render handle. Call after every
// mutation so the style document stays current.
func (s *Session) Sync() error {
	return s.Handle.Apply(s.Config())
}

// Update runs fn under the session lock and re-renders afterwards.
func (s *Session) Update(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = time.Now()
	if err := fn(); err != nil {
		return err
	}
	return s.Sync()
}

// SessionManager tracks editor sessions by map ID and bridges them to the
// persisted map store.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maps     *service.MapService
}

func NewSessionManager(maps *service.MapService) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		maps:     maps,
	}
}

// Get returns the session for mapID, creating one if needed. Opening an
// existing map seeds the session from its stored configuration; NewMapID
// starts blank.
func (m *SessionManager) Get(mapID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[mapID]; ok {
		return s, nil
	}

	s := newSession(mapID)
	if mapID != NewMapID {
		rec, err := m.maps.Get(mapID)
		if err != nil {
			return nil, err
		}
		s.Title = rec.Title
		s.Basemap = rec.Config.Basemap
		s.Viewport = rec.Config.Viewport
		s.Markers = rec.Config.Markers
		s.Layers.Restore(rec.Config.Layers)
		if err := s.Sync(); err != nil {
			return nil, err
		}
	}
	m.sessions[mapID] = s
	return s, nil
}

// Publish persists a session: update for known maps, create for NewMapID.
// A freshly created map re-keys the session under its minted ID.
func (m *SessionManager) Publish(s *Session) (service.MapRecord, error) {
	s.mu.Lock()
	cfg := s.Config()
	title := s.Title
	mapID := s.MapID
	s.mu.Unlock()

	if mapID != NewMapID {
		return m.maps.Update(mapID, title, "", cfg)
	}

	rec, err := m.maps.Create(title, "", cfg)
	if err != nil {
		return service.MapRecord{}, err
	}

	m.mu.Lock()
	delete(m.sessions, NewMapID)
	s.mu.Lock()
	s.MapID = rec.ID
	s.mu.Unlock()
	m.sessions[rec.ID] = s
	m.mu.Unlock()

	return rec, nil
}

// Drop discards a session and detaches its render handle.
func (m *SessionManager) Drop(mapID string) {
	m.mu.Lock()
	s, ok := m.sessions[mapID]
	delete(m.sessions, mapID)
	m.mu.Unlock()
	if ok {
		s.Handle.Detach()
	}
}

// Sweep drops sessions idle for longer than maxIdle.
func (m *SessionManager) Sweep(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.touched.Before(cutoff)
		s.mu.Unlock()
		if idle {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Handle.Detach()
		log := logging.Component("editor")
		log.Debug().Str("map_id", s.MapID).Msg("dropped idle session")
	}
}
