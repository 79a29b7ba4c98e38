// Package session holds per-browser authentication state for the web
// frontend. State lives in memory and is mirrored to a keyring so a restart
// does not log everyone out. Keyring failures never surface to callers: a
// session that cannot persist simply behaves as logged out after a restart.
package session

import (
	"sync"

	"go.uber.org/zap"
)

// Keyring keys mirrored per session.
const (
	KeyToken    = "auth_token"
	KeyOutreach = "is_outreach"
	KeyEmail    = "user_email"
)

// Membership is the session's knowledge of Outreach department membership.
// Unknown means the flag was never recorded for this session, which is
// distinct from a recorded false.
type Membership int

const (
	Unknown Membership = iota
	Denied
	Granted
)

// MembershipFromBool converts a recorded flag into a known membership state.
func MembershipFromBool(isOutreach bool) Membership {
	if isOutreach {
		return Granted
	}
	return Denied
}

func (m Membership) String() string {
	switch m {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Keyring is the durable mirror behind a session. Read returns ok=false for
// an absent key.
type Keyring interface {
	Read(key string) (value string, ok bool)
	Write(key, value string) error
	Delete(key string) error
}

// Store is one browser session's authentication state. All methods are safe
// for concurrent use. Mutations update memory synchronously and mirror to the
// keyring asynchronously; call Flush to wait for pending mirror writes.
type Store struct {
	mu       sync.RWMutex
	token    string
	outreach Membership
	email    string

	keyring Keyring
	log     *zap.Logger
	pending sync.WaitGroup
}

// New loads a session from the keyring. A keyring read failure yields an
// empty, logged-out session.
func New(keyring Keyring, log *zap.Logger) *Store {
	s := &Store{keyring: keyring, log: log}
	if v, ok := keyring.Read(KeyToken); ok {
		s.token = v
	}
	if v, ok := keyring.Read(KeyOutreach); ok {
		s.outreach = MembershipFromBool(v == "true")
	}
	if v, ok := keyring.Read(KeyEmail); ok {
		s.email = v
	}
	return s
}

// Token returns the stored API token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// HasToken reports whether the session is authenticated.
func (s *Store) HasToken() bool {
	return s.Token() != ""
}

// Outreach returns the session's membership knowledge.
func (s *Store) Outreach() Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outreach
}

// Email returns the stored email, or "".
func (s *Store) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// SetToken stores the API token. An empty token removes the key from the
// keyring rather than mirroring "".
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.mirror(KeyToken, token)
}

// SetOutreach records the membership flag; after this call the state is
// always known.
func (s *Store) SetOutreach(isOutreach bool) {
	s.mu.Lock()
	s.outreach = MembershipFromBool(isOutreach)
	s.mu.Unlock()
	if isOutreach {
		s.mirror(KeyOutreach, "true")
	} else {
		s.mirror(KeyOutreach, "false")
	}
}

// SetEmail stores the user's email. An empty email removes the key from the
// keyring.
func (s *Store) SetEmail(email string) {
	s.mu.Lock()
	s.email = email
	s.mu.Unlock()
	s.mirror(KeyEmail, email)
}

// Logout clears the token, the membership flag and the email together.
func (s *Store) Logout() {
	s.mu.Lock()
	s.token = ""
	s.outreach = Unknown
	s.email = ""
	s.mu.Unlock()

	for _, key := range []string{KeyToken, KeyOutreach, KeyEmail} {
		key := key
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			if err := s.keyring.Delete(key); err != nil {
				s.log.Debug("keyring delete failed", zap.String("key", key), zap.Error(err))
			}
		}()
	}
}

// Flush blocks until all pending keyring writes have finished.
func (s *Store) Flush() {
	s.pending.Wait()
}

// mirror replicates a value to the keyring in the background. An empty value
// deletes the key so durable storage never holds cleared entries.
func (s *Store) mirror(key, value string) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if value == "" {
			if err := s.keyring.Delete(key); err != nil {
				s.log.Debug("keyring delete failed", zap.String("key", key), zap.Error(err))
			}
			return
		}
		if err := s.keyring.Write(key, value); err != nil {
			s.log.Debug("keyring write failed", zap.String("key", key), zap.Error(err))
		}
	}()
}
