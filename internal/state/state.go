package state

import (
	"dashxcel/internal/models"
	"dashxcel/internal/service"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	// ErrNoSession is returned for unknown or expired session IDs.
	ErrNoSession = errors.New("session not found")

	// ErrNoDataset is returned when a session has no dataset loaded yet.
	ErrNoDataset = errors.New("no dataset loaded")
)

// Session is one browser's dashboard state. Datasets are never mutated in
// place; a new upload replaces them.
type Session struct {
	ID             string
	FileName       string
	Source         string // "upload" or "postgres"
	Raw            *models.Dataset
	Dataset        *models.Dataset // processed, with coerced dates
	Classification models.Classification
	Selection      models.Selection
	DB             service.DataSource
	CreatedAt      time.Time
	LastSeen       time.Time
}

// HasDataset reports whether a dataset has been loaded.
func (s *Session) HasDataset() bool {
	return s.Dataset != nil
}

// Store holds sessions in memory and evicts idle ones.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
	cron     *cron.Cron
}

func NewStore(ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Create starts an empty session.
func (s *Store) Create() Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		LastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Debug("Session created", zap.String("session_id", sess.ID))
	return *sess
}

// Get returns a snapshot of the session and marks it as seen.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	sess.LastSeen = s.now()
	return *sess, nil
}

// Update applies fn to the session under the store lock.
func (s *Store) Update(id string, fn func(*Session)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	fn(sess)
	sess.LastSeen = s.now()
	return *sess, nil
}

// ReplaceDataset swaps in a newly loaded dataset and resets the selection.
func (s *Store) ReplaceDataset(id, fileName, source string, raw, processed *models.Dataset, cls models.Classification) (Session, error) {
	return s.Update(id, func(sess *Session) {
		sess.FileName = fileName
		sess.Source = source
		sess.Raw = raw
		sess.Dataset = processed
		sess.Classification = cls
		sess.Selection = models.Selection{}
	})
}

// Delete removes a session and closes its database connection.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		s.closeDB(sess)
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed. A zero TTL keeps sessions forever.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	var expired []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		s.closeDB(sess)
	}
	if len(expired) > 0 {
		s.logger.Info("Evicted idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

func (s *Store) closeDB(sess *Session) {
	if sess.DB == nil {
		return
	}
	if err := sess.DB.Close(); err != nil {
		s.logger.Warn("Failed to close session database",
			zap.String("session_id", sess.ID),
			zap.Error(err))
	}
}

// StartSweeper runs Sweep on the given cron spec, e.g. "@every 5m".
func (s *Store) StartSweeper(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.Sweep() }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	c.Start()

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	s.logger.Info("Session sweeper started", zap.String("schedule", spec), zap.Duration("ttl", s.ttl))
	return nil
}

// Stop halts the sweeper and waits for a running sweep to finish.
func (s *Store) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
