package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"complaints/backend/internal/analysis"
	"complaints/backend/internal/api/handler"
	"complaints/backend/internal/complaint"
	"complaints/backend/internal/gamification"
	"complaints/backend/internal/hub"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/models"
	"complaints/backend/internal/notification"
	"complaints/backend/internal/session"
	"complaints/backend/internal/storage/storagetest"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	h      *handler.Handler
	router *gin.Engine
	tokens *session.Tokens
}

func newFixture(t *testing.T, opts handler.RouterOptions) *fixture {
	t.Helper()
	store := storagetest.New(t)
	logger := logging.Discard()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	manager := hub.NewManager(nil, logger)
	go manager.Run(ctx)

	tokens := session.NewTokens("test-secret", time.Hour)
	h := handler.NewHandler(handler.Deps{
		Complaints:    complaint.NewLocal(store, manager, logger),
		Analytics:     analysis.NewLocal(store, logger),
		Gamification:  gamification.NewLocal(store, manager, logger),
		Notifications: notification.NewLocal(store, manager, logger),
		Hub:           manager,
		Tokens:        tokens,
		Logger:        logger,
	})
	return &fixture{h: h, router: h.Router(opts), tokens: tokens}
}

func (f *fixture) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHandler_ListsSeededComplaints(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})

	w := f.do(t, http.MethodGet, "/api/complaints", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Complaint](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)

	w = f.do(t, http.MethodGet, "/api/complaints?category=Salud", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[[]models.Complaint](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "2", list[0].ID)
}

func TestHandler_CreateAndFetchComplaint(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})

	w := f.do(t, http.MethodPost, "/api/complaints", models.ComplaintFormData{
		Content:  "El bus de la ruta 8 no pasa desde hace una semana",
		Category: "Transporte",
		Location: "Sur, Ciudad",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Complaint](t, w)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.NotEmpty(t, created.Entities)

	w = f.do(t, http.MethodGet, "/api/complaints/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.Content, decode[models.Complaint](t, w).Content)
}

func TestHandler_ErrorMapping(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown complaint", http.MethodGet, "/api/complaints/missing", nil, http.StatusNotFound},
		{"like unknown complaint", http.MethodPost, "/api/complaints/missing/like", nil, http.StatusNotFound},
		{"empty content", http.MethodPost, "/api/complaints", models.ComplaintFormData{Category: "Salud", Location: "Norte"}, http.StatusBadRequest},
		{"bad status", http.MethodPut, "/api/complaints/1/status", models.StatusUpdate{Status: "closed"}, http.StatusBadRequest},
		{"limit above page size", http.MethodGet, "/api/complaints?limit=101", nil, http.StatusBadRequest},
		{"search limit above page size", http.MethodGet, "/api/search?q=ciudad&limit=101", nil, http.StatusBadRequest},
		{"bad timeline days", http.MethodGet, "/api/analytics/timeline?days=abc", nil, http.StatusBadRequest},
		{"unknown stat", http.MethodPost, "/api/gamification/stats/bogus", nil, http.StatusBadRequest},
		{"unknown notification", http.MethodPut, "/api/notifications/missing/read", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
		})
	}
}

func TestHandler_LikeShareAndComment(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})

	w := f.do(t, http.MethodPost, "/api/complaints/1/like", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, decode[models.LikeResult](t, w).TotalLikes)

	w = f.do(t, http.MethodPost, "/api/complaints/1/share", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, decode[models.ShareResult](t, w).TotalShares)

	w = f.do(t, http.MethodPost, "/api/complaints/1/comments", models.CommentInput{Content: "Totalmente de acuerdo"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/complaints/1/comments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decode[[]models.Comment](t, w)
	require.Len(t, comments, 1)
	assert.Equal(t, "Totalmente de acuerdo", comments[0].Content)
}

func TestHandler_DeleteComplaint(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})

	w := f.do(t, http.MethodDelete, "/api/complaints/2", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodDelete, "/api/complaints/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_SearchAndEntities(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})

	w := f.do(t, http.MethodGet, "/api/search?q=HOSPITAL", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[models.SearchResult](t, w)
	require.Equal(t, 1, res.TotalResults)
	assert.Equal(t, "2", res.Complaints[0].ID)

	w = f.do(t, http.MethodPost, "/api/entities", models.EntityRequest{Text: "el metro de la ciudad"})
	require.Equal(t, http.StatusOK, w.Code)
	entities := decode[[]models.Entity](t, w)
	require.NotEmpty(t, entities)
	assert.Equal(t, "metro", entities[0].Value)
}

func TestHandler_Analytics(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})

	w := f.do(t, http.MethodGet, "/api/analytics/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[models.AnalyticsSummary](t, w).TotalComplaints)

	w = f.do(t, http.MethodGet, "/api/analytics/timeline?days=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.TimelinePoint](t, w), 7)

	w = f.do(t, http.MethodGet, "/api/analytics/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[[]models.CategoryStat](t, w))
}

func TestHandler_Gamification(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})

	w := f.do(t, http.MethodPost, "/api/gamification/stats/helpfulVotes", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 160, decode[models.User](t, w).TransparencyPoints)

	w = f.do(t, http.MethodPost, "/api/gamification/points", models.PointsAward{UserID: "1", Points: 100, Reason: "Revisión"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decode[models.User](t, w)
	assert.Equal(t, 260, user.TransparencyPoints)
	assert.Equal(t, 2, user.Level)

	w = f.do(t, http.MethodGet, "/api/gamification/leaderboard?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.LeaderboardEntry](t, w), 1)

	w = f.do(t, http.MethodGet, "/api/gamification/leaderboard?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Notifications(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})

	w := f.do(t, http.MethodGet, "/api/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[models.UnreadCount](t, w).Count)

	w = f.do(t, http.MethodPut, "/api/notifications/1/read", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/api/notifications/unread-count", nil)
	assert.Equal(t, 1, decode[models.UnreadCount](t, w).Count)

	w = f.do(t, http.MethodPut, "/api/notifications/read-all", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/api/notifications/unread-count", nil)
	assert.Equal(t, 0, decode[models.UnreadCount](t, w).Count)

	w = f.do(t, http.MethodDelete, "/api/notifications/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandler_Authentication(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})

	w := f.do(t, http.MethodGet, "/auth/token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[map[string]string](t, w)["token"]
	require.NotEmpty(t, token)

	w = f.do(t, http.MethodGet, "/api/gamification/stats", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/gamification/stats", nil, "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/gamification/stats", nil, "Authorization", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other := session.NewTokens("other-secret", time.Hour)
	forged, err := other.Issue("1")
	require.NoError(t, err)
	w = f.do(t, http.MethodGet, "/api/gamification/stats", nil, "Authorization", "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_TokenForUnknownUser(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})

	token, err := f.tokens.Issue("ghost")
	require.NoError(t, err)
	w := f.do(t, http.MethodGet, "/api/gamification/stats", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_RateLimit(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{RateLimitRPS: 1, RateBurst: 2})

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(t, http.MethodGet, "/healthz", nil).Code)
}

func TestHandler_Metrics(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})

	f.do(t, http.MethodGet, "/api/complaints", nil)
	w := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "complaints_http_requests_total")
}

func TestHandler_WebSocketReceivesNotifications(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	token, err := f.tokens.Issue("1")
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.h.Hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	w := f.do(t, http.MethodPost, "/api/notifications", models.Notification{Title: "Hola", Message: "Mensaje de prueba"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got models.Notification
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "Hola", got.Title)
	assert.Equal(t, models.NotificationInfo, got.Type)
}

func TestHandler_WebSocketRejectsBadToken(t *testing.T) {
	f := newFixture(t, handler.RouterOptions{})
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
