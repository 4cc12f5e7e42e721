package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/champsing/mercuryland/internal/adapter/websocket"
	"github.com/champsing/mercuryland/internal/auth"
	"github.com/champsing/mercuryland/internal/domain"
	"github.com/champsing/mercuryland/internal/platform/config"
)

// --- Mock app service ---

type mockAppService struct {
	listPenaltiesFn       func(ctx context.Context) ([]domain.Penalty, error)
	createPenaltyFn       func(ctx context.Context, p *domain.Penalty) (int64, error)
	updatePenaltyStateFn  func(ctx context.Context, id int64, state domain.PenaltyState) error
	updatePenaltyDetailFn func(ctx context.Context, id int64, detail string) error

	listVideosFn  func(ctx context.Context) ([]domain.Video, error)
	createVideoFn func(ctx context.Context, v *domain.Video) (int64, error)
	updateVideoFn func(ctx context.Context, v *domain.Video) error
	deleteVideoFn func(ctx context.Context, id int64) error

	getWheelFn           func(ctx context.Context, id uuid.UUID) (*domain.Wheel, error)
	createWheelFn        func(ctx context.Context, entries []domain.WheelEntry) (*domain.Wheel, error)
	updateWheelEntriesFn func(ctx context.Context, id uuid.UUID, entries []domain.WheelEntry) error
	submitWheelOutcomeFn func(ctx context.Context, id uuid.UUID, secret, outcome string) error

	getSettingFn  func(ctx context.Context, key string) (string, error)
	setSettingFn  func(ctx context.Context, key, value string) error
	allSettingsFn func(ctx context.Context) (map[string]string, error)

	leaderboardFn func(ctx context.Context) ([]domain.CoinAccount, error)
}

func (m *mockAppService) ListPenalties(ctx context.Context) ([]domain.Penalty, error) {
	if m.listPenaltiesFn != nil {
		return m.listPenaltiesFn(ctx)
	}
	return nil, nil
}

func (m *mockAppService) CreatePenalty(ctx context.Context, p *domain.Penalty) (int64, error) {
	if m.createPenaltyFn != nil {
		return m.createPenaltyFn(ctx, p)
	}
	return 1, nil
}

func (m *mockAppService) UpdatePenaltyState(ctx context.Context, id int64, state domain.PenaltyState) error {
	if m.updatePenaltyStateFn != nil {
		return m.updatePenaltyStateFn(ctx, id, state)
	}
	return nil
}

func (m *mockAppService) UpdatePenaltyDetail(ctx context.Context, id int64, detail string) error {
	if m.updatePenaltyDetailFn != nil {
		return m.updatePenaltyDetailFn(ctx, id, detail)
	}
	return nil
}

func (m *mockAppService) ListVideos(ctx context.Context) ([]domain.Video, error) {
	if m.listVideosFn != nil {
		return m.listVideosFn(ctx)
	}
	return nil, nil
}

func (m *mockAppService) CreateVideo(ctx context.Context, v *domain.Video) (int64, error) {
	if m.createVideoFn != nil {
		return m.createVideoFn(ctx, v)
	}
	return 1, nil
}

func (m *mockAppService) UpdateVideo(ctx context.Context, v *domain.Video) error {
	if m.updateVideoFn != nil {
		return m.updateVideoFn(ctx, v)
	}
	return nil
}

func (m *mockAppService) DeleteVideo(ctx context.Context, id int64) error {
	if m.deleteVideoFn != nil {
		return m.deleteVideoFn(ctx, id)
	}
	return nil
}

func (m *mockAppService) GetWheel(ctx context.Context, id uuid.UUID) (*domain.Wheel, error) {
	if m.getWheelFn != nil {
		return m.getWheelFn(ctx, id)
	}
	return nil, domain.ErrWheelNotFound
}

func (m *mockAppService) CreateWheel(ctx context.Context, entries []domain.WheelEntry) (*domain.Wheel, error) {
	if m.createWheelFn != nil {
		return m.createWheelFn(ctx, entries)
	}
	return &domain.Wheel{ID: uuid.New(), Secret: "secret", Entries: entries}, nil
}

func (m *mockAppService) UpdateWheelEntries(ctx context.Context, id uuid.UUID, entries []domain.WheelEntry) error {
	if m.updateWheelEntriesFn != nil {
		return m.updateWheelEntriesFn(ctx, id, entries)
	}
	return nil
}

func (m *mockAppService) SubmitWheelOutcome(ctx context.Context, id uuid.UUID, secret, outcome string) error {
	if m.submitWheelOutcomeFn != nil {
		return m.submitWheelOutcomeFn(ctx, id, secret, outcome)
	}
	return nil
}

func (m *mockAppService) GetSetting(ctx context.Context, key string) (string, error) {
	if m.getSettingFn != nil {
		return m.getSettingFn(ctx, key)
	}
	return "", domain.ErrSettingNotFound
}

func (m *mockAppService) SetSetting(ctx context.Context, key, value string) error {
	if m.setSettingFn != nil {
		return m.setSettingFn(ctx, key, value)
	}
	return nil
}

func (m *mockAppService) AllSettings(ctx context.Context) (map[string]string, error) {
	if m.allSettingsFn != nil {
		return m.allSettingsFn(ctx)
	}
	return map[string]string{}, nil
}

func (m *mockAppService) Leaderboard(ctx context.Context) ([]domain.CoinAccount, error) {
	if m.leaderboardFn != nil {
		return m.leaderboardFn(ctx)
	}
	return nil, nil
}

// --- Test helpers ---

const testAdminID = "100000000000000001"

func newTestServer(t *testing.T, app appService) (*Server, *clockwork.FakeClock) {
	t.Helper()

	clock := clockwork.NewFakeClock()

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{Path: "/", MaxAge: 600}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:   e,
		config: &config.Config{AppEnv: "test", Port: "0"},
		app:    app,
		tokens: auth.NewManager("0123456789abcdef0123456789abcdef", 30*time.Minute, clock),
		hub:    websocket.NewHub(),
		oauth: &oauth2.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURL:  "http://localhost/callback",
			Scopes:       []string{"identify"},
			Endpoint:     discordEndpoint,
		},
		identityURL:  discordIdentityURL,
		sessionStore: store,
		adminIDs:     map[string]struct{}{testAdminID: {}},
		startTime:    time.Now(),
	}
	t.Cleanup(srv.hub.Stop)

	srv.registerRoutes()

	return srv, clock
}

func issueToken(t *testing.T, srv *Server, discordID string, admin bool) string {
	t.Helper()
	token, _, err := srv.tokens.Issue(discordID, "tester", admin)
	require.NoError(t, err)
	return token
}

// doJSON performs a request against the full router, so middleware runs as in
// production.
func doJSON(t *testing.T, srv *Server, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
