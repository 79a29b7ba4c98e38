// Package webapp is the server-rendered frontend for academic-erp. It keeps
// one session per browser, talks to the API through pkg/client, and renders
// the login, organisation and OAuth callback screens.
package webapp

import (
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"academic-erp/pkg/client"
	"academic-erp/pkg/config"
	"academic-erp/pkg/middleware"
	"academic-erp/pkg/session"
	"academic-erp/pkg/validation"
)

const sessionCookie = "erp_session"

// Manager hands out one session.Store per browser, keyed by the session
// cookie. Stores are cached so every request for the same browser shares
// state.
type Manager struct {
	mu       sync.Mutex
	dir      string
	log      *zap.Logger
	sessions map[string]*session.Store
}

// NewManager creates a session manager persisting under dir.
func NewManager(dir string, log *zap.Logger) *Manager {
	return &Manager{dir: dir, log: log, sessions: make(map[string]*session.Store)}
}

// Get returns the request's session, minting a cookie for first-time
// visitors.
func (m *Manager) Get(w http.ResponseWriter, r *http.Request) *session.Store {
	var id string
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		id = cookie.Value
	} else {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   30 * 24 * 60 * 60,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		sess = session.New(session.NewFileKeyring(m.dir, id), m.log)
		m.sessions[id] = sess
	}
	return sess
}

// Flush waits for pending keyring writes across all sessions.
func (m *Manager) Flush() {
	m.mu.Lock()
	stores := make([]*session.Store, 0, len(m.sessions))
	for _, s := range m.sessions {
		stores = append(stores, s)
	}
	m.mu.Unlock()
	for _, s := range stores {
		s.Flush()
	}
}

// Server is the web frontend.
type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	tmpl     *template.Template
	sessions *Manager
	validate *validator.Validate

	// newClient builds the API client for a session; swappable in tests.
	newClient func(tokens client.TokenSource) *client.Client
}

// NewServer creates the web frontend server.
func NewServer(cfg *config.Config, sessions *Manager, log *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log,
		tmpl:     parseTemplates(),
		sessions: sessions,
		validate: validation.New(),
	}
	s.newClient = func(tokens client.TokenSource) *client.Client {
		return client.New(cfg.BackendURL, tokens)
	}
	return s
}

func (s *Server) api(sess *session.Store) *client.Client {
	return s.newClient(sess)
}

// Routes builds the frontend router.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(s.log))
	r.Use(middleware.Recovery(s.log))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/", s.home)
	r.Get("/login", s.loginPage)
	r.Post("/login", s.loginSubmit)
	r.Get("/auth/callback", s.authCallback)
	r.Post("/logout", s.logout)

	r.Get("/welcome", s.requireToken(s.welcome))

	r.Route("/organisations", func(r chi.Router) {
		r.Get("/", s.requireOutreach(s.listOrganisations))
		r.Get("/new", s.requireOutreach(s.newOrganisationForm))
		r.Post("/new", s.requireOutreach(s.createOrganisation))
		r.Get("/{id}", s.requireOutreach(s.showOrganisation))
		r.Get("/{id}/edit", s.requireOutreach(s.editOrganisationForm))
		r.Post("/{id}/edit", s.requireOutreach(s.updateOrganisation))
		r.Get("/{id}/delete", s.requireOutreach(s.deleteOrganisationConfirm))
		r.Post("/{id}/delete", s.requireOutreach(s.deleteOrganisation))
	})

	return r
}
