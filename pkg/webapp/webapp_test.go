package webapp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"academic-erp/pkg/config"
	"academic-erp/pkg/models"
	"academic-erp/pkg/session"
)

// fakeAPI is a stand-in backend covering the endpoints the frontend calls.
type fakeAPI struct {
	srv *httptest.Server

	userInfo    models.UserInfo
	userInfoErr bool

	loginResp models.TokenResponse
	loginErr  bool

	exchangeResp  models.TokenResponse
	exchangeCalls int32

	orgs        []models.Organisation
	createCalls int32
	lastCreate  *models.OrganisationRequest
	deleteCalls int32
	lastAuth    string
}

func newFakeAPI() *fakeAPI {
	f := &fakeAPI{}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			f.lastAuth = req.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			next.ServeHTTP(w, req)
		})
	})
	r.Post("/api/auth/user-info", func(w http.ResponseWriter, req *http.Request) {
		if f.userInfoErr {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"message":"backend down"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(f.userInfo)
	})
	r.Post("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		if f.loginErr {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid username or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(f.loginResp)
	})
	r.Post("/api/auth/oauth/token", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&f.exchangeCalls, 1)
		_ = json.NewEncoder(w).Encode(f.exchangeResp)
	})
	r.Get("/api/organisations", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(f.orgs)
	})
	r.Get("/api/organisations/search", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(f.orgs)
	})
	r.Post("/api/organisations", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&f.createCalls, 1)
		var body models.OrganisationRequest
		_ = json.NewDecoder(req.Body).Decode(&body)
		f.lastCreate = &body
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Organisation{
			ID:        int64(len(f.orgs) + 1),
			Name:      body.Name,
			Address:   body.Address,
			HRDetails: body.HRDetails,
		})
	})
	r.Get("/api/organisations/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
		for _, org := range f.orgs {
			if org.ID == id {
				_ = json.NewEncoder(w).Encode(org)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Organisation not found"}`))
	})
	r.Delete("/api/organisations/{id}", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&f.deleteCalls, 1)
		_, _ = w.Write([]byte(`{"message":"Organisation deleted successfully"}`))
	})
	f.srv = httptest.NewServer(r)
	return f
}

func (f *fakeAPI) Close() { f.srv.Close() }

func newWebServer(t *testing.T, api *fakeAPI) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Environment: "test",
		BackendURL:  api.srv.URL,
		FrontendURL: "http://frontend.test",
		SessionDir:  dir,
	}
	srv := NewServer(cfg, NewManager(dir, zap.NewNop()), zap.NewNop())
	return srv, dir
}

const testSessionID = "11111111-2222-3333-4444-555555555555"

func sessionRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: testSessionID})
	return req
}

// primeSession seeds the keyring before the manager first loads the session.
func primeSession(t *testing.T, dir, token string, outreach *bool) {
	t.Helper()
	keyring := session.NewFileKeyring(dir, testSessionID)
	require.NoError(t, keyring.Write(session.KeyToken, token))
	if outreach != nil {
		require.NoError(t, keyring.Write(session.KeyOutreach, strconv.FormatBool(*outreach)))
	}
}

func boolPtr(b bool) *bool { return &b }

func TestCallbackTokenBranch(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()
	api.userInfo = models.UserInfo{Email: "alice@university.edu", IsOutreach: true}
	api.orgs = []models.Organisation{{ID: 1, Name: "IIIT Bangalore", Address: "Electronics City"}}

	srv, _ := newWebServer(t, api)
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/auth/callback?token=tok-123&isOutreach=true"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/organisations", rec.Header().Get("Location"))

	// The session now carries the token; the list screen loads.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/organisations"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "IIIT Bangalore")
	assert.Equal(t, "Bearer tok-123", api.lastAuth)
}

func TestCallbackTokenBranchNonOutreach(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()
	api.userInfo = models.UserInfo{Email: "bob@university.edu", IsOutreach: false}

	srv, _ := newWebServer(t, api)
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/auth/callback?token=tok-123&isOutreach=false"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/welcome", rec.Header().Get("Location"))
}

func TestCallbackCodeBranch(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()
	api.exchangeResp = models.TokenResponse{Token: "tok-456", Email: "alice@university.edu", IsOutreach: true}

	srv, _ := newWebServer(t, api)
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/auth/callback?code=abc&state=xyz"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/organisations", rec.Header().Get("Location"))
}

func TestCallbackCodeWithoutState(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()
	api.exchangeResp = models.TokenResponse{Token: "tok-456", IsOutreach: true}

	srv, _ := newWebServer(t, api)
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/auth/callback?code=abc"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, int32(0), atomic.LoadInt32(&api.exchangeCalls), "a code without state is never exchanged")
}

func TestCallbackEmptyExchangeToken(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()
	// The exchange endpoint answers 200 but carries no token.

	srv, _ := newWebServer(t, api)
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/auth/callback?code=abc&state=xyz"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication failed. Please try again.")

	// Nothing was stored: a guarded page still bounces to the login screen.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/organisations"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestCallbackErrorBranch(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()

	srv, _ := newWebServer(t, api)
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/auth/callback?error=not_outreach"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(),
		"Access denied. Only Outreach department employees can access Organisation operations.")

	// No token was stored: protected screens still redirect to login.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/organisations"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestCallbackWithoutParams(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()

	srv, _ := newWebServer(t, api)
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/auth/callback"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: testSessionID})
	return req
}

func TestCreateOrganisationFlow(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()

	srv, dir := newWebServer(t, api)
	primeSession(t, dir, "tok-123", boolPtr(true))
	router := srv.Routes()

	form := url.Values{
		"name":          {"IIIT Bangalore"},
		"address":       {"Electronics City"},
		"firstName":     {"Priya"},
		"lastName":      {"Sharma"},
		"email":         {"priya@iiitb.ac.in"},
		"contactNumber": {"(987) 654-3210"},
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, formRequest("/organisations/new", form))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Organisation created successfully")
	require.NotNil(t, api.lastCreate)
	assert.Equal(t, "9876543210", api.lastCreate.HRDetails.ContactNumber, "phone arrives normalized")
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.createCalls))
}

func TestCreateOrganisationFlowValidation(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()

	srv, dir := newWebServer(t, api)
	primeSession(t, dir, "tok-123", boolPtr(true))
	router := srv.Routes()

	form := url.Values{
		"name":          {""},
		"address":       {"Electronics City"},
		"firstName":     {"Priya"},
		"lastName":      {"Sharma"},
		"email":         {"priya@iiitb.ac.in"},
		"contactNumber": {"12345"},
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, formRequest("/organisations/new", form))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Organisation name is required")
	assert.Contains(t, rec.Body.String(), "Contact number must be exactly 10 digits")
	assert.Equal(t, int32(0), atomic.LoadInt32(&api.createCalls), "invalid forms never reach the API")
}

func TestGuardWithoutToken(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()

	srv, _ := newWebServer(t, api)
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/organisations"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestGuardUnknownMembershipResolves(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()
	api.userInfo = models.UserInfo{Email: "alice@university.edu", IsOutreach: true}

	srv, dir := newWebServer(t, api)
	primeSession(t, dir, "tok-123", nil)
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/organisations"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardUnknownMembershipShowsLoadingOnFailure(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()
	api.userInfoErr = true

	srv, dir := newWebServer(t, api)
	primeSession(t, dir, "tok-123", nil)
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/organisations"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Checking access")
}

func TestGuardDeniedMembership(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()

	srv, dir := newWebServer(t, api)
	primeSession(t, dir, "tok-123", boolPtr(false))
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/organisations"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/welcome", rec.Header().Get("Location"))
}

func TestGuardGrantedMembership(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()
	api.orgs = []models.Organisation{{ID: 1, Name: "IIIT Bangalore"}}

	srv, dir := newWebServer(t, api)
	primeSession(t, dir, "tok-123", boolPtr(true))
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/organisations"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginSubmitFailure(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()
	api.loginErr = true

	srv, _ := newWebServer(t, api)
	router := srv.Routes()

	form := url.Values{"username": {"alice@university.edu"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: testSessionID})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password")
}

func TestLoginSubmitSuccess(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()
	api.loginResp = models.TokenResponse{Token: "tok-789", Email: "alice@university.edu", IsOutreach: true}

	srv, _ := newWebServer(t, api)
	router := srv.Routes()

	form := url.Values{"username": {"alice@university.edu"}, "password": {"s3cret"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: testSessionID})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/organisations", rec.Header().Get("Location"))
}

func TestDeleteFlow(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()
	api.orgs = []models.Organisation{{ID: 5, Name: "IIIT Bangalore", Address: "Electronics City"}}

	srv, dir := newWebServer(t, api)
	primeSession(t, dir, "tok-123", boolPtr(true))
	router := srv.Routes()

	// The confirm screen renders without touching the record.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/organisations/5/delete"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "IIIT Bangalore")
	assert.Equal(t, int32(0), atomic.LoadInt32(&api.deleteCalls))

	// Confirming deletes exactly once and returns to the list.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodPost, "/organisations/5/delete"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/organisations", rec.Header().Get("Location"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.deleteCalls))
}

func TestLogoutClearsSession(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()

	srv, dir := newWebServer(t, api)
	primeSession(t, dir, "tok-123", boolPtr(true))
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodPost, "/logout"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/organisations"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestHomeRedirects(t *testing.T) {
	api := newFakeAPI()
	defer api.Close()

	srv, dir := newWebServer(t, api)
	router := srv.Routes()

	// A brand-new browser gets a fresh session and lands on login.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// A browser with a persisted token goes straight to organisations.
	primeSession(t, dir, "tok-123", boolPtr(true))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, sessionRequest(http.MethodGet, "/"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/organisations", rec.Header().Get("Location"))
}
