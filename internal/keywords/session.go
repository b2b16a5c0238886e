package keywords

import (
	"errors"
	"fmt"
	"sync"

	"soapctl/internal/library"
	"soapctl/internal/soapui"
	"soapctl/pkg/logging"
)

// Level is the framework log level of a keyword message.
type Level string

const (
	LevelInfo Level = "INFO"
	LevelWarn Level = "WARN"
)

// Message is one line a keyword wrote to the framework log.
type Message struct {
	Level Level  `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
}

func (m Message) String() string { return fmt.Sprintf("[%s] %s", m.Level, m.Text) }

// recorder implements library.Logger. It buffers messages for the current
// invocation and mirrors them to the process log.
type recorder struct {
	session  string
	mu       sync.Mutex
	messages []Message
}

func (r *recorder) Info(msg string) {
	logging.Info("Keyword", "[%s] %s", r.session, msg)
	r.add(LevelInfo, msg)
}

func (r *recorder) Warn(msg string) {
	logging.Warn("Keyword", "[%s] %s", r.session, msg)
	r.add(LevelWarn, msg)
}

func (r *recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: msg})
}

func (r *recorder) drain() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.messages
	r.messages = nil
	return out
}

// Session is one library instance, the unit of TEST CASE scope. Keyword
// calls on a session are serialized.
type Session struct {
	ID string

	mu  sync.Mutex
	lib *library.Library
	log *recorder
}

// NewSession creates a session with a fresh library on engine.
func NewSession(id string, engine soapui.Engine) *Session {
	log := &recorder{session: id}
	return &Session{
		ID:  id,
		lib: library.New(engine, log),
		log: log,
	}
}

// Close releases the session's library, stopping a running mock service.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lib.Close()
}

// Sessions maps caller session ids to library instances.
type Sessions struct {
	engine soapui.Engine

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessions(engine soapui.Engine) *Sessions {
	return &Sessions{
		engine:   engine,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it on first use.
func (s *Sessions) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := NewSession(id, s.engine)
	s.sessions[id] = sess
	logging.Debug("Sessions", "Created session %s", id)
	return sess
}

// Reset starts a new test case for id: the previous library is closed and
// replaced by a fresh one. A close error is returned together with the new
// session.
func (s *Sessions) Reset(id string) (*Session, error) {
	s.mu.Lock()
	old := s.sessions[id]
	sess := NewSession(id, s.engine)
	s.sessions[id] = sess
	s.mu.Unlock()

	if old == nil {
		return sess, nil
	}
	if err := old.Close(); err != nil {
		return sess, fmt.Errorf("failed to close previous test case of session %s: %w", id, err)
	}
	logging.Debug("Sessions", "Reset session %s", id)
	return sess, nil
}

// Close removes the session for id and releases its library.
func (s *Sessions) Close(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return sess.Close()
}

// CloseAll releases every session. It is called at shutdown.
func (s *Sessions) CloseAll() error {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	var errs []error
	for id, sess := range all {
		if err := sess.Close(); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
