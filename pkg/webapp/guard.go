package webapp

import (
	"net/http"

	"go.uber.org/zap"

	"academic-erp/pkg/session"
)

// requireToken sends unauthenticated browsers to the login screen.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.Get(w, r)
		if !sess.HasToken() {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r)
	}
}

// requireOutreach additionally enforces Outreach department membership.
// With the membership unresolved it asks the API; if that fails the loading
// screen is shown and the browser retries.
func (s *Server) requireOutreach(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.Get(w, r)
		if !sess.HasToken() {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		switch sess.Outreach() {
		case session.Granted:
			next(w, r)
		case session.Denied:
			http.Redirect(w, r, "/welcome", http.StatusFound)
		default:
			info, err := s.api(sess).UserInfo(r.Context(), sess.Token())
			if err != nil {
				s.log.Warn("membership resolution failed", zap.Error(err))
				s.render(w, http.StatusOK, "loading.html", pageData{
					Title:      "Checking access",
					RefreshURL: r.URL.RequestURI(),
				})
				return
			}
			sess.SetOutreach(info.IsOutreach)
			if info.Email != "" {
				sess.SetEmail(info.Email)
			}
			if !info.IsOutreach {
				http.Redirect(w, r, "/welcome", http.StatusFound)
				return
			}
			next(w, r)
		}
	}
}
