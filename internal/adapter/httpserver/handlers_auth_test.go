package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDiscord stands in for Discord's token and identity endpoints.
func fakeDiscord(t *testing.T, srv *Server, userID, username string) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fake-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer fake-access-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": userID, "username": username})
	})

	discord := httptest.NewServer(mux)
	t.Cleanup(discord.Close)

	srv.oauth.Endpoint.TokenURL = discord.URL + "/oauth2/token"
	srv.identityURL = discord.URL + "/users/@me"
}

// beginLogin fetches the auth URL and returns the state plus the session
// cookies that pin it.
func beginLogin(t *testing.T, srv *Server) (state string, cookies []*http.Cookie) {
	t.Helper()

	rec := doJSON(t, srv, http.MethodGet, "/api/auth/url", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]string](t, rec)
	authURL, err := url.Parse(body["url"])
	require.NoError(t, err)

	state = authURL.Query().Get("state")
	require.NotEmpty(t, state)

	return state, rec.Result().Cookies()
}

func loginRequest(t *testing.T, srv *Server, code, state string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"code": code, "state": state})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func TestLogin_AdminUser(t *testing.T) {
	srv, _ := newTestServer(t, &mockAppService{})
	fakeDiscord(t, srv, testAdminID, "水星")

	state, cookies := beginLogin(t, srv)
	rec := loginRequest(t, srv, "auth-code", state, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Admin)
	assert.Equal(t, "水星", resp.Username)

	claims, err := srv.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, testAdminID, claims.DiscordID)
	assert.True(t, claims.IsAdmin)
}

func TestLogin_RegularUserGetsNonAdminToken(t *testing.T) {
	srv, _ := newTestServer(t, &mockAppService{})
	fakeDiscord(t, srv, "200000000000000002", "viewer")

	state, cookies := beginLogin(t, srv)
	rec := loginRequest(t, srv, "auth-code", state, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Admin)

	claims, err := srv.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin)
}

func TestLogin_RejectsWrongState(t *testing.T) {
	srv, _ := newTestServer(t, &mockAppService{})
	fakeDiscord(t, srv, testAdminID, "水星")

	_, cookies := beginLogin(t, srv)
	rec := loginRequest(t, srv, "auth-code", "forged-state", cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_RejectsMissingSessionState(t *testing.T) {
	srv, _ := newTestServer(t, &mockAppService{})
	fakeDiscord(t, srv, testAdminID, "水星")

	rec := loginRequest(t, srv, "auth-code", "some-state", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_RejectsMissingCode(t *testing.T) {
	srv, _ := newTestServer(t, &mockAppService{})

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", map[string]string{"state": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTick_RefreshesToken(t *testing.T) {
	srv, clock := newTestServer(t, &mockAppService{})
	token := issueToken(t, srv, testAdminID, true)

	clock.Advance(10 * time.Minute)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/tick", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[tokenResponse](t, rec)
	claims, err := srv.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, testAdminID, claims.DiscordID)
	assert.True(t, claims.ExpiresAt.After(clock.Now().Add(29*time.Minute)))
}

func TestTick_RejectsExpiredToken(t *testing.T) {
	srv, clock := newTestServer(t, &mockAppService{})
	token := issueToken(t, srv, testAdminID, true)

	clock.Advance(31 * time.Minute)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/tick", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTick_RejectsMissingToken(t *testing.T) {
	srv, _ := newTestServer(t, &mockAppService{})

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/tick", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
