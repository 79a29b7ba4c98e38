package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"academic-erp/pkg/config"
	"academic-erp/pkg/database"
	"academic-erp/pkg/middleware"
	"academic-erp/pkg/models"
	"academic-erp/pkg/utils"
)

const (
	defaultGoogleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	oauthStateCookie = "oauth_state"
)

// AuthHandler serves login, token exchange and the Google OAuth flow.
type AuthHandler struct {
	cfg      *config.Config
	store    database.Store
	log      *zap.Logger
	jwt      *utils.JWTService
	validate *validator.Validate
	client   *http.Client

	// Google endpoints, swappable in tests.
	authURL     string
	tokenURL    string
	userInfoURL string
}

// NewAuthHandler creates the auth handler with the real Google endpoints.
func NewAuthHandler(cfg *config.Config, store database.Store, log *zap.Logger, jwt *utils.JWTService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{
		cfg:         cfg,
		store:       store,
		log:         log,
		jwt:         jwt,
		validate:    validate,
		client:      &http.Client{Timeout: 15 * time.Second},
		authURL:     defaultGoogleAuthURL,
		tokenURL:    defaultGoogleTokenURL,
		userInfoURL: defaultGoogleUserInfoURL,
	}
}

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type googleProfile struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// Login handles POST /api/auth/login with username/password credentials.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteBadRequest(w, "Username and password are required")
		return
	}

	employee, err := h.store.GetEmployeeByEmail(req.Username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteUnauthorized(w, "Invalid username or password")
			return
		}
		h.log.Error("login lookup failed", zap.Error(err))
		utils.WriteInternalServerError(w, "Login failed")
		return
	}
	if employee.PasswordHash == "" {
		utils.WriteUnauthorized(w, "Password login is not enabled for this account")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(req.Password)); err != nil {
		utils.WriteUnauthorized(w, "Invalid username or password")
		return
	}

	token, err := h.jwt.GenerateToken(employee.Email)
	if err != nil {
		h.log.Error("token generation failed", zap.Error(err))
		utils.WriteInternalServerError(w, "Login failed")
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.TokenResponse{
		Token:      token,
		Email:      employee.Email,
		IsOutreach: employee.IsOutreach(),
	})
}

// UserInfo handles POST /api/auth/user-info, resolving a token to a profile.
func (h *AuthHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	var req models.UserInfoRequest
	if err := utils.ParseJSONBody(r, &req); err != nil || req.Token == "" {
		utils.WriteBadRequest(w, "Token is required")
		return
	}

	claims, err := h.jwt.ValidateToken(req.Token)
	if err != nil {
		utils.WriteUnauthorized(w, "Invalid token")
		return
	}

	employee, err := h.store.GetEmployeeByEmail(claims.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Token holder without an employee record: email only.
			utils.WriteJSON(w, http.StatusOK, models.UserInfo{Email: claims.Email})
			return
		}
		h.log.Error("user-info lookup failed", zap.Error(err))
		utils.WriteInternalServerError(w, "Failed to fetch user info")
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.UserInfo{
		Email:      employee.Email,
		FirstName:  employee.FirstName,
		LastName:   employee.LastName,
		Department: employee.Department,
		IsOutreach: employee.IsOutreach(),
	})
}

// ExchangeToken handles POST /api/auth/oauth/token. It trades a Google
// authorization code for an application token, enforcing the employee and
// Outreach checks.
func (h *AuthHandler) ExchangeToken(w http.ResponseWriter, r *http.Request) {
	var req models.OAuthExchangeRequest
	if err := utils.ParseJSONBody(r, &req); err != nil || req.Code == "" {
		utils.WriteBadRequest(w, "Authorization code is required")
		return
	}

	accessToken, err := h.exchangeGoogleCode(req.Code)
	if err != nil {
		h.log.Error("google code exchange failed", zap.Error(err))
		utils.WriteError(w, http.StatusBadGateway, "Failed to exchange authorization code")
		return
	}
	profile, err := h.fetchGoogleProfile(accessToken)
	if err != nil {
		h.log.Error("google profile fetch failed", zap.Error(err))
		utils.WriteError(w, http.StatusBadGateway, "Failed to fetch user info from Google")
		return
	}
	if profile.Email == "" {
		utils.WriteBadRequest(w, "Email not found in Google account")
		return
	}

	exists, err := h.store.EmployeeExists(profile.Email)
	if err != nil {
		h.log.Error("employee check failed", zap.Error(err))
		utils.WriteInternalServerError(w, "Authentication failed")
		return
	}
	if !exists {
		utils.WriteForbidden(w, middleware.MsgNotEmployee)
		return
	}
	employee, err := h.store.GetEmployeeByEmail(profile.Email)
	if err != nil {
		h.log.Error("employee lookup failed", zap.Error(err))
		utils.WriteInternalServerError(w, "Authentication failed")
		return
	}
	if !employee.IsOutreach() {
		utils.WriteForbidden(w, middleware.MsgNotOutreach)
		return
	}
	if _, err := h.store.CreateEmployeeIfMissing(profile.Email, profile.GivenName, profile.FamilyName); err != nil {
		h.log.Warn("employee record refresh failed", zap.Error(err))
	}

	token, err := h.jwt.GenerateToken(employee.Email)
	if err != nil {
		h.log.Error("token generation failed", zap.Error(err))
		utils.WriteInternalServerError(w, "Authentication failed")
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.TokenResponse{
		Token:      token,
		Email:      employee.Email,
		IsOutreach: true,
	})
}

// AuthorizeGoogle handles GET /oauth2/authorization/google: it plants the
// state cookie and redirects to the Google consent screen.
func (h *AuthHandler) AuthorizeGoogle(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	q := url.Values{}
	q.Set("client_id", h.cfg.GoogleClientID)
	q.Set("redirect_uri", h.cfg.OAuthRedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	q.Set("state", state)
	http.Redirect(w, r, h.authURL+"?"+q.Encode(), http.StatusFound)
}

// GoogleCallback handles GET /api/auth/oauth2/callback. Every outcome is a
// redirect back to the frontend callback page, carrying either a token or an
// error code.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("error") != "" {
		h.log.Warn("google reported oauth error", zap.String("error", q.Get("error")))
		h.redirectWithError(w, r, "auth_failed")
		return
	}
	code := q.Get("code")
	if code == "" {
		h.redirectWithError(w, r, "oauth2_required")
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		h.log.Warn("oauth state mismatch")
		h.redirectWithError(w, r, "auth_failed")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	accessToken, err := h.exchangeGoogleCode(code)
	if err != nil {
		h.log.Error("google code exchange failed", zap.Error(err))
		h.redirectWithError(w, r, "auth_failed")
		return
	}
	profile, err := h.fetchGoogleProfile(accessToken)
	if err != nil {
		h.log.Error("google profile fetch failed", zap.Error(err))
		h.redirectWithError(w, r, "auth_failed")
		return
	}
	if profile.Email == "" {
		h.redirectWithError(w, r, "email_not_found")
		return
	}

	// Every authenticated Google user gets a token; the Outreach flag only
	// decides where the frontend sends them next.
	isValid, err := h.store.EmployeeExists(profile.Email)
	if err != nil {
		h.log.Error("employee check failed", zap.Error(err))
		h.redirectWithError(w, r, "server_error")
		return
	}
	isOutreach := false
	if isValid {
		employee, err := h.store.GetEmployeeByEmail(profile.Email)
		if err != nil {
			h.log.Error("employee lookup failed", zap.Error(err))
			h.redirectWithError(w, r, "server_error")
			return
		}
		isOutreach = employee.IsOutreach()
		if _, err := h.store.CreateEmployeeIfMissing(profile.Email, profile.GivenName, profile.FamilyName); err != nil {
			h.log.Warn("employee record refresh failed", zap.Error(err))
		}
	}

	token, err := h.jwt.GenerateToken(profile.Email)
	if err != nil {
		h.log.Error("token generation failed", zap.Error(err))
		h.redirectWithError(w, r, "server_error")
		return
	}

	redirect := fmt.Sprintf("%s/auth/callback?token=%s&isOutreach=%t",
		h.cfg.FrontendURL, url.QueryEscape(token), isOutreach)
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.cfg.FrontendURL+"/auth/callback?error="+url.QueryEscape(code), http.StatusFound)
}

func (h *AuthHandler) exchangeGoogleCode(code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", h.cfg.GoogleClientID)
	form.Set("client_secret", h.cfg.GoogleClientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", h.cfg.OAuthRedirectURI)

	resp, err := h.client.PostForm(h.tokenURL, form)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var tok googleTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("token response missing access_token")
	}
	return tok.AccessToken, nil
}

func (h *AuthHandler) fetchGoogleProfile(accessToken string) (*googleProfile, error) {
	req, err := http.NewRequest(http.MethodGet, h.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, fmt.Errorf("userinfo endpoint returned %d: %s", resp.StatusCode, body)
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo response: %w", err)
	}
	return &profile, nil
}
