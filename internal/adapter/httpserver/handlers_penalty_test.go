package httpserver

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champsing/mercuryland/internal/domain"
)

func TestListPenalties(t *testing.T) {
	app := &mockAppService{
		listPenaltiesFn: func(context.Context) ([]domain.Penalty, error) {
			return []domain.Penalty{
				{ID: 1, Name: "唱歌", State: domain.PenaltyNotStarted},
				{ID: 2, Name: "深蹲一百下", State: domain.PenaltyCompleted},
			}, nil
		},
	}
	srv, _ := newTestServer(t, app)

	rec := doJSON(t, srv, http.MethodGet, "/api/penalty", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	penalties := decodeBody[[]domain.Penalty](t, rec)
	assert.Len(t, penalties, 2)
}

func TestListPenalties_FilterByState(t *testing.T) {
	app := &mockAppService{
		listPenaltiesFn: func(context.Context) ([]domain.Penalty, error) {
			return []domain.Penalty{
				{ID: 1, Name: "唱歌", State: domain.PenaltyNotStarted},
				{ID: 2, Name: "深蹲", State: domain.PenaltyCompleted},
			}, nil
		},
	}
	srv, _ := newTestServer(t, app)

	rec := doJSON(t, srv, http.MethodGet, "/api/penalty?state=4", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	penalties := decodeBody[[]domain.Penalty](t, rec)
	require.Len(t, penalties, 1)
	assert.Equal(t, int64(2), penalties[0].ID)
}

func TestListPenalties_FilterByName(t *testing.T) {
	app := &mockAppService{
		listPenaltiesFn: func(context.Context) ([]domain.Penalty, error) {
			return []domain.Penalty{
				{ID: 1, Name: "唱歌"},
				{ID: 2, Name: "深蹲"},
			}, nil
		},
	}
	srv, _ := newTestServer(t, app)

	rec := doJSON(t, srv, http.MethodGet, "/api/penalty?name=%E5%94%B1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	penalties := decodeBody[[]domain.Penalty](t, rec)
	require.Len(t, penalties, 1)
	assert.Equal(t, int64(1), penalties[0].ID)
}

func TestListPenalties_InvalidStateFilter(t *testing.T) {
	srv, _ := newTestServer(t, &mockAppService{})

	rec := doJSON(t, srv, http.MethodGet, "/api/penalty?state=99", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPenalties_EmptyListIsJSONArray(t *testing.T) {
	srv, _ := newTestServer(t, &mockAppService{})

	rec := doJSON(t, srv, http.MethodGet, "/api/penalty", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestCreatePenalty_RequiresAdmin(t *testing.T) {
	srv, _ := newTestServer(t, &mockAppService{})

	rec := doJSON(t, srv, http.MethodPost, "/api/penalty", map[string]string{"name": "唱歌"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userToken := issueToken(t, srv, "200000000000000002", false)
	rec = doJSON(t, srv, http.MethodPost, "/api/penalty", map[string]string{"name": "唱歌"}, userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreatePenalty(t *testing.T) {
	var created *domain.Penalty
	app := &mockAppService{
		createPenaltyFn: func(_ context.Context, p *domain.Penalty) (int64, error) {
			created = p
			return 7, nil
		},
	}
	srv, _ := newTestServer(t, app)
	token := issueToken(t, srv, testAdminID, true)

	rec := doJSON(t, srv, http.MethodPost, "/api/penalty",
		map[string]string{"name": "唱歌", "detail": "上週直播輸了"}, token)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody[map[string]int64](t, rec)
	assert.Equal(t, int64(7), body["id"])
	require.NotNil(t, created)
	assert.Equal(t, "唱歌", created.Name)
	assert.Equal(t, "上週直播輸了", created.Detail)
}

func TestUpdatePenalty_State(t *testing.T) {
	var gotID int64
	var gotState domain.PenaltyState
	app := &mockAppService{
		updatePenaltyStateFn: func(_ context.Context, id int64, state domain.PenaltyState) error {
			gotID, gotState = id, state
			return nil
		},
	}
	srv, _ := newTestServer(t, app)
	token := issueToken(t, srv, testAdminID, true)

	rec := doJSON(t, srv, http.MethodPut, "/api/penalty",
		map[string]any{"id": 3, "state": int(domain.PenaltyInProgress)}, token)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(3), gotID)
	assert.Equal(t, domain.PenaltyInProgress, gotState)
}

func TestUpdatePenalty_Detail(t *testing.T) {
	var gotDetail string
	app := &mockAppService{
		updatePenaltyDetailFn: func(_ context.Context, _ int64, detail string) error {
			gotDetail = detail
			return nil
		},
	}
	srv, _ := newTestServer(t, app)
	token := issueToken(t, srv, testAdminID, true)

	rec := doJSON(t, srv, http.MethodPut, "/api/penalty",
		map[string]any{"id": 3, "detail": "已完成一半"}, token)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "已完成一半", gotDetail)
}

func TestUpdatePenalty_NotFound(t *testing.T) {
	app := &mockAppService{
		updatePenaltyStateFn: func(context.Context, int64, domain.PenaltyState) error {
			return domain.ErrPenaltyNotFound
		},
	}
	srv, _ := newTestServer(t, app)
	token := issueToken(t, srv, testAdminID, true)

	rec := doJSON(t, srv, http.MethodPut, "/api/penalty",
		map[string]any{"id": 404, "state": 2}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdatePenalty_NothingToUpdate(t *testing.T) {
	srv, _ := newTestServer(t, &mockAppService{})
	token := issueToken(t, srv, testAdminID, true)

	rec := doJSON(t, srv, http.MethodPut, "/api/penalty", map[string]any{"id": 3}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
