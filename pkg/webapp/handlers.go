package webapp

import (
	"errors"
	"net/http"
	"strconv"

	chiRoute "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"academic-erp/pkg/client"
	"academic-erp/pkg/session"
)

// callbackErrorMessages maps the error codes the API callback redirect can
// carry to the message shown on the callback screen.
var callbackErrorMessages = map[string]string{
	"oauth2_required": "OAuth2 authentication required",
	"email_not_found": "Email not found in Google account",
	"not_employee":    "Access denied. Only registered employees can access this system.",
	"not_outreach":    "Access denied. Only Outreach department employees can access Organisation operations.",
	"auth_failed":     "Authentication failed. Please try again.",
	"server_error":    "Server error during authentication. Backend issue detected.",
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	if sess.HasToken() {
		http.Redirect(w, r, "/organisations", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	if sess.HasToken() {
		http.Redirect(w, r, "/organisations", http.StatusFound)
		return
	}
	s.render(w, http.StatusOK, "login.html", pageData{
		Title:          "Sign in",
		GoogleLoginURL: s.cfg.BackendURL + "/oauth2/authorization/google",
	})
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	resp, err := s.api(sess).Login(r.Context(), username, password)
	if err != nil {
		s.render(w, http.StatusUnauthorized, "login.html", pageData{
			Title:          "Sign in",
			Error:          apiMessage(err, "Login failed. Please try again."),
			GoogleLoginURL: s.cfg.BackendURL + "/oauth2/authorization/google",
		})
		return
	}

	sess.SetToken(resp.Token)
	sess.SetOutreach(resp.IsOutreach)
	if resp.Email != "" {
		sess.SetEmail(resp.Email)
	}
	s.redirectAfterLogin(w, r, resp.IsOutreach)
}

// authCallback lands the browser after the OAuth dance. Four shapes arrive
// here: a ready token, a code+state pair to exchange, an error code, or
// nothing at all.
func (s *Server) authCallback(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	q := r.URL.Query()

	switch {
	case q.Get("token") != "":
		token := q.Get("token")
		isOutreach := q.Get("isOutreach") == "true"
		sess.SetToken(token)
		sess.SetOutreach(isOutreach)
		if info, err := s.api(sess).UserInfo(r.Context(), token); err == nil && info.Email != "" {
			sess.SetEmail(info.Email)
		}
		s.redirectAfterLogin(w, r, isOutreach)

	case q.Get("code") != "" && q.Get("state") != "":
		resp, err := s.api(sess).ExchangeCode(r.Context(), q.Get("code"), q.Get("state"))
		if err != nil {
			s.log.Warn("code exchange failed", zap.Error(err))
			s.render(w, http.StatusOK, "callback_error.html", pageData{
				Title: "Sign in failed",
				Error: apiMessage(err, callbackErrorMessages["auth_failed"]),
			})
			return
		}
		if resp.Token == "" {
			s.render(w, http.StatusOK, "callback_error.html", pageData{
				Title: "Sign in failed",
				Error: callbackErrorMessages["auth_failed"],
			})
			return
		}
		sess.SetToken(resp.Token)
		sess.SetOutreach(resp.IsOutreach)
		if resp.Email != "" {
			sess.SetEmail(resp.Email)
		}
		s.redirectAfterLogin(w, r, resp.IsOutreach)

	case q.Get("error") != "":
		msg, ok := callbackErrorMessages[q.Get("error")]
		if !ok {
			msg = "Authentication failed"
		}
		s.render(w, http.StatusOK, "callback_error.html", pageData{Title: "Sign in failed", Error: msg})

	default:
		http.Redirect(w, r, "/login", http.StatusFound)
	}
}

func (s *Server) redirectAfterLogin(w http.ResponseWriter, r *http.Request, isOutreach bool) {
	if isOutreach {
		http.Redirect(w, r, "/organisations", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/welcome", http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	sess.Logout()
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) welcome(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	restricted := sess.Outreach() == session.Denied
	data := pageData{Title: "Welcome", Email: sess.Email(), LoggedIn: true}
	if restricted {
		data.Error = callbackErrorMessages["not_outreach"]
	}
	s.render(w, http.StatusOK, "welcome.html", data)
}

func (s *Server) listOrganisations(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	query := r.URL.Query().Get("q")

	var err error
	data := pageData{Title: "Organisations", Email: sess.Email(), LoggedIn: true, Query: query}
	if query != "" {
		data.Orgs, err = s.api(sess).Search(r.Context(), query)
	} else {
		data.Orgs, err = s.api(sess).ListAll(r.Context())
	}
	if err != nil {
		s.log.Error("organisation list failed", zap.Error(err))
		data.Error = apiMessage(err, "Failed to load organisations")
	}
	s.render(w, http.StatusOK, "organisations.html", data)
}

func (s *Server) newOrganisationForm(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	s.render(w, http.StatusOK, "organisation_form.html", pageData{
		Title:       "New organisation",
		Email:       sess.Email(),
		LoggedIn:    true,
		Mode:        "create",
		FieldErrors: map[string]string{},
	})
}

func (s *Server) createOrganisation(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	form := parseOrganisationForm(r)
	data := pageData{Title: "New organisation", Email: sess.Email(), LoggedIn: true, Mode: "create", Form: form}

	data.FieldErrors = form.fieldErrors(s.validate)
	if len(data.FieldErrors) > 0 {
		s.render(w, http.StatusUnprocessableEntity, "organisation_form.html", data)
		return
	}

	if _, err := s.api(sess).Create(r.Context(), form.toRequest()); err != nil {
		s.log.Warn("organisation create failed", zap.Error(err))
		data.Error = apiMessage(err, "Failed to create organisation")
		s.render(w, http.StatusOK, "organisation_form.html", data)
		return
	}
	s.renderSaved(w, sess, "Organisation created successfully")
}

func (s *Server) showOrganisation(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	org, err := s.api(sess).GetByID(r.Context(), id)
	if err != nil {
		if client.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		s.log.Error("organisation fetch failed", zap.Int64("id", id), zap.Error(err))
		http.Error(w, "Failed to load organisation", http.StatusBadGateway)
		return
	}
	s.render(w, http.StatusOK, "organisation_detail.html", pageData{
		Title:    org.Name,
		Email:    sess.Email(),
		LoggedIn: true,
		Org:      org,
	})
}

func (s *Server) editOrganisationForm(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	org, err := s.api(sess).GetByID(r.Context(), id)
	if err != nil {
		if client.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		s.log.Error("organisation fetch failed", zap.Int64("id", id), zap.Error(err))
		http.Error(w, "Failed to load organisation", http.StatusBadGateway)
		return
	}
	s.render(w, http.StatusOK, "organisation_form.html", pageData{
		Title:       "Edit organisation",
		Email:       sess.Email(),
		LoggedIn:    true,
		Mode:        "edit",
		Org:         org,
		Form:        formFromOrganisation(org),
		FieldErrors: map[string]string{},
	})
}

func (s *Server) updateOrganisation(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	form := parseOrganisationForm(r)
	data := pageData{Title: "Edit organisation", Email: sess.Email(), LoggedIn: true, Mode: "edit", Form: form}
	data.FieldErrors = form.fieldErrors(s.validate)
	if len(data.FieldErrors) > 0 {
		s.render(w, http.StatusUnprocessableEntity, "organisation_form.html", data)
		return
	}

	if _, err := s.api(sess).Update(r.Context(), id, form.toUpdate()); err != nil {
		if client.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		s.log.Warn("organisation update failed", zap.Int64("id", id), zap.Error(err))
		data.Error = apiMessage(err, "Failed to update organisation")
		s.render(w, http.StatusOK, "organisation_form.html", data)
		return
	}
	s.renderSaved(w, sess, "Organisation updated successfully")
}

func (s *Server) deleteOrganisationConfirm(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	org, err := s.api(sess).GetByID(r.Context(), id)
	if err != nil {
		if client.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		s.log.Error("organisation fetch failed", zap.Int64("id", id), zap.Error(err))
		http.Error(w, "Failed to load organisation", http.StatusBadGateway)
		return
	}
	s.render(w, http.StatusOK, "organisation_delete.html", pageData{
		Title:    "Delete organisation",
		Email:    sess.Email(),
		LoggedIn: true,
		Org:      org,
	})
}

func (s *Server) deleteOrganisation(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := s.api(sess).Remove(r.Context(), id); err != nil {
		if client.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		s.log.Error("organisation delete failed", zap.Int64("id", id), zap.Error(err))
		http.Error(w, "Failed to delete organisation", http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, "/organisations", http.StatusSeeOther)
}

// renderSaved shows a brief confirmation; the page sends the browser back to
// the list after a short delay.
func (s *Server) renderSaved(w http.ResponseWriter, sess *session.Store, message string) {
	s.render(w, http.StatusOK, "organisation_saved.html", pageData{
		Title:    "Saved",
		Email:    sess.Email(),
		LoggedIn: true,
		Message:  message,
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chiRoute.URLParam(r, "id"), 10, 64)
}

// apiMessage prefers the API's own message, falling back when the error was
// not an API response.
func apiMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
