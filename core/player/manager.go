package player

import (
	"sync"
	"time"

	"WaveFM/logger"

	"github.com/google/uuid"
)

// Manager owns the live controller sessions, one per open page. Sessions
// are created when a page mounts, closed when it unmounts, and swept by a
// janitor when a page disappears without saying goodbye.
type Manager struct {
	idleTTL time.Duration

	mu       sync.RWMutex
	sessions map[string]*Controller

	done chan struct{}
	wg   sync.WaitGroup
}

// NewManager creates a session manager and starts its janitor.
func NewManager(idleTTL time.Duration) *Manager {
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}
	m := &Manager{
		idleTTL:  idleTTL,
		sessions: make(map[string]*Controller),
		done:     make(chan struct{}),
	}
	m.wg.Add(1)
	go m.janitor()
	return m
}

// Create registers a new controller session and returns its id. The
// options are built with the id in hand so OnChange can address the
// session's broadcast channel.
func (m *Manager) Create(build func(id string) Options) (string, *Controller) {
	id := uuid.NewString()
	opts := build(id)
	controller := NewController(opts)

	m.mu.Lock()
	m.sessions[id] = controller
	m.mu.Unlock()

	logger.Info("player session created",
		logger.String("sessionId", id),
		logger.String("scope", string(opts.Scope)))
	return id, controller
}

// Get returns the controller of a session.
func (m *Manager) Get(id string) (*Controller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	controller, ok := m.sessions[id]
	return controller, ok
}

// Close stops a session's playback and removes it. Closing an unknown
// session reports false.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	controller, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	controller.Clear()
	logger.Info("player session closed", logger.String("sessionId", id))
	return true
}

// EvictSong clears every controller currently playing the given song.
// Called when an uploaded song is removed so no session keeps playing a
// source that no longer exists. Returns the number of cleared sessions.
func (m *Manager) EvictSong(songID string) int {
	m.mu.RLock()
	var affected []*Controller
	for _, controller := range m.sessions {
		if controller.CurrentSongID() == songID {
			affected = append(affected, controller)
		}
	}
	m.mu.RUnlock()

	for _, controller := range affected {
		controller.Clear()
	}
	if len(affected) > 0 {
		logger.Info("cleared sessions after song removal",
			logger.String("songId", songID),
			logger.Int("sessions", len(affected)))
	}
	return len(affected)
}

// janitor periodically drops sessions idle past the TTL.
func (m *Manager) janitor() {
	defer m.wg.Done()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.done:
			return
		}
	}
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	var expired []string
	for id, controller := range m.sessions {
		if controller.LastActive().Before(cutoff) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		logger.Info("swept idle player session", logger.String("sessionId", id))
	}
}

// Shutdown stops the janitor and closes all sessions.
func (m *Manager) Shutdown() {
	close(m.done)
	m.wg.Wait()

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Controller)
	m.mu.Unlock()

	for _, controller := range sessions {
		controller.Clear()
	}
}
