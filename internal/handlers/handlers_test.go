package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/gatherly/internal/database"
	"github.com/thereayou/gatherly/internal/middleware"
	"github.com/thereayou/gatherly/internal/models"
	"github.com/thereayou/gatherly/internal/services"
	"github.com/thereayou/gatherly/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db        *database.Database
	hub       *websocket.Hub
	chat      *services.ChatService
	notices   *services.NoticeService
	events    *services.EventService
	countdown *services.CountdownService
	intents   *MessageHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	db := database.NewDatabase(gdb)
	require.NoError(t, db.Migrate())

	log := zap.NewNop()
	hub := websocket.NewHub(log)
	f := &fixture{db: db, hub: hub}
	f.chat = services.NewChatService(db, db, hub, log)
	f.notices = services.NewNoticeService(db, db, db, hub, 24*time.Hour, log)
	f.events = services.NewEventService(db, db, f.notices, time.UTC, log)
	f.countdown = services.NewCountdownService(db, services.CountdownConfig{
		Location:         time.UTC,
		InProgressWindow: 2 * time.Hour,
		ReportScheduled:  true,
	}, log)
	f.intents = NewMessageHandler(hub, f.chat, f.countdown, log)
	return f
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()

	u := &models.User{Name: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, f.db.SaveUser(context.Background(), u))
	return u
}

func (f *fixture) connect(userID uuid.UUID) *websocket.Client {
	c := websocket.NewClient(f.hub, nil, userID)
	f.hub.Attach(c)
	return c
}

func intent(t *testing.T, msgType websocket.MessageType, data interface{}) *websocket.Message {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return &websocket.Message{Type: msgType, Data: raw}
}

func frames(t *testing.T, c *websocket.Client) []websocket.Message {
	t.Helper()

	var out []websocket.Message
	for {
		select {
		case frame := <-c.Send:
			var msg websocket.Message
			require.NoError(t, json.Unmarshal(frame, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func framesOfType(t *testing.T, c *websocket.Client, msgType websocket.MessageType) []websocket.Message {
	var out []websocket.Message
	for _, f := range frames(t, c) {
		if f.Type == msgType {
			out = append(out, f)
		}
	}
	return out
}

func TestMessageHandler_JoinSendRead(t *testing.T) {
	f := newFixture(t)
	u1, u2 := f.user(t, "u1"), f.user(t, "u2")
	c1, c2 := f.connect(u1.ID), f.connect(u2.ID)

	require.NoError(t, f.intents.HandleMessage(c1, intent(t, websocket.TypeJoin, map[string]string{"user_id": u1.ID.String()})))
	require.NoError(t, f.intents.HandleMessage(c2, intent(t, websocket.TypeJoin, nil)))

	rosters := framesOfType(t, c1, websocket.TypeOnlineUsers)
	require.Len(t, rosters, 2)
	var roster []uuid.UUID
	require.NoError(t, json.Unmarshal(rosters[1].Data, &roster))
	assert.ElementsMatch(t, []uuid.UUID{u1.ID, u2.ID}, roster)
	frames(t, c2)

	err := f.intents.HandleMessage(c1, intent(t, websocket.TypeSendMessage, map[string]string{
		"receiver_id": u2.ID.String(),
		"body":        "hello",
	}))
	require.NoError(t, err)

	var delivered models.Message
	for _, c := range []*websocket.Client{c1, c2} {
		got := framesOfType(t, c, websocket.TypeReceiveMessage)
		require.Len(t, got, 1)
		require.NoError(t, json.Unmarshal(got[0].Data, &delivered))
		assert.Equal(t, "hello", delivered.Body)
	}

	err = f.intents.HandleMessage(c2, intent(t, websocket.TypeMarkRead, map[string]string{
		"message_id": delivered.ID.String(),
	}))
	require.NoError(t, err)
	assert.Len(t, framesOfType(t, c1, websocket.TypeMessageRead), 1)
	assert.Len(t, framesOfType(t, c2, websocket.TypeMessageRead), 1)

	stored, err := f.db.GetMessage(context.Background(), delivered.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)
}

func TestMessageHandler_Errors(t *testing.T) {
	f := newFixture(t)
	u1 := f.user(t, "u1")
	c1 := f.connect(u1.ID)

	tests := []struct {
		name     string
		msg      *websocket.Message
		wantCode string
	}{
		{
			name:     "join as someone else",
			msg:      intent(t, websocket.TypeJoin, map[string]string{"user_id": uuid.NewString()}),
			wantCode: "unauthorized",
		},
		{
			name:     "blank body",
			msg:      intent(t, websocket.TypeSendMessage, map[string]string{"receiver_id": u1.ID.String(), "body": "  "}),
			wantCode: "invalid_argument",
		},
		{
			name:     "unknown receiver",
			msg:      intent(t, websocket.TypeSendMessage, map[string]string{"receiver_id": uuid.NewString(), "body": "hi"}),
			wantCode: "not_found",
		},
		{
			name:     "unknown message",
			msg:      intent(t, websocket.TypeMarkRead, map[string]string{"message_id": uuid.NewString()}),
			wantCode: "not_found",
		},
		{
			name:     "malformed payload",
			msg:      &websocket.Message{Type: websocket.TypeSendMessage, Data: json.RawMessage(`"nope"`)},
			wantCode: "invalid_argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.intents.HandleMessage(c1, tt.msg)
			require.Error(t, err)

			var ce *websocket.ClientError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantCode, ce.Code)
		})
	}

	_, ok := f.hub.Lookup(u1.ID)
	assert.False(t, ok)

	assert.NoError(t, f.intents.HandleMessage(c1, &websocket.Message{Type: "mystery"}))
}

func TestMessageHandler_CountdownAnswersRequesterOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org, bob := f.user(t, "org"), f.user(t, "bob")

	event, err := f.events.Create(ctx, org.ID, services.CreateEventInput{
		Title:    "Tomorrow",
		Location: "Hall",
		Date:     time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02"),
		Time:     "10:00",
	})
	require.NoError(t, err)
	_, err = f.events.Join(ctx, event.ID, bob.ID, nil)
	require.NoError(t, err)

	requester, bystander := f.connect(bob.ID), f.connect(org.ID)

	require.NoError(t, f.intents.HandleMessage(requester, &websocket.Message{Type: websocket.TypeCountdown}))

	updates := framesOfType(t, requester, websocket.TypeCountdownUpdate)
	require.Len(t, updates, 1)
	var view services.NearestEventView
	require.NoError(t, json.Unmarshal(updates[0].Data, &view))
	assert.Equal(t, services.StatusScheduled, view.Status)
	require.NotNil(t, view.Event)
	assert.Equal(t, event.ID, view.Event.ID)

	assert.Empty(t, framesOfType(t, bystander, websocket.TypeCountdownUpdate))
}

func withUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatHandler_SendAndHistory(t *testing.T) {
	f := newFixture(t)
	u1, u2 := f.user(t, "u1"), f.user(t, "u2")
	h := NewChatHandler(f.chat)

	r := gin.New()
	r.Use(withUser(u1.ID))
	r.POST("/chat/send", h.Send)
	r.GET("/chat/list", h.ChatList)
	r.GET("/chat/:peerId", h.History)

	w := doJSON(r, http.MethodPost, "/chat/send", map[string]string{"receiver_id": u2.ID.String(), "body": "offline hello"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/chat/send", map[string]string{"receiver_id": "bogus", "body": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/chat/send", map[string]string{"receiver_id": uuid.NewString(), "body": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/chat/"+u2.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "offline hello", history.Messages[0].Body)

	w = doJSON(r, http.MethodGet, "/chat/list", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Chats []models.ChatSummary `json:"chats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Chats, 1)
	assert.Equal(t, u2.ID, list.Chats[0].PeerID)
}

func TestEventHandler_CreateJoinAnnounce(t *testing.T) {
	f := newFixture(t)
	org := f.user(t, "org")
	watcher := f.connect(uuid.New())
	h := NewEventHandler(f.events, f.countdown)
	nh := NewNoticeHandler(f.notices)

	r := gin.New()
	r.Use(withUser(org.ID))
	r.POST("/events", h.Create)
	r.GET("/events", h.List)
	r.GET("/events/nearest", h.Nearest)
	r.GET("/events/:id", h.Get)
	r.POST("/events/:id/join", h.Join)
	r.POST("/events/:id/withdraw", h.Withdraw)
	r.GET("/notices", nh.List)

	date := time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02")
	w := doJSON(r, http.MethodPost, "/events", map[string]interface{}{
		"title": "Launch", "location": "Roof", "date": date, "time": "7:30 pm",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Event models.Event `json:"event"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "07:30 PM", created.Event.Time)

	w = doJSON(r, http.MethodGet, "/events/nearest", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPost, "/events/"+created.Event.ID.String()+"/join", map[string]interface{}{"interests": []string{"space"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/events/"+created.Event.ID.String()+"/join", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodGet, "/events/nearest", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Launch")

	w = doJSON(r, http.MethodGet, "/events/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/notices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notices struct {
		Notices []models.EventNotice `json:"notices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notices))
	require.Len(t, notices.Notices, 2)
	assert.Equal(t, `org participated in the event "Launch"`, notices.Notices[0].Text)

	assert.Len(t, framesOfType(t, watcher, websocket.TypeEventNotice), 2)

	w = doJSON(r, http.MethodPost, "/events/"+created.Event.ID.String()+"/withdraw", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodPost, "/events/"+created.Event.ID.String()+"/withdraw", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidArgument, http.StatusBadRequest},
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrPersistence, http.StatusServiceUnavailable},
		{services.ErrAlreadyJoined, http.StatusConflict},
		{services.ErrUnauthorized, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, httpStatus(tt.err), tt.err.Error())
	}

	ce := clientError(services.ErrPersistence)
	assert.Equal(t, "persistence_failure", ce.Code)
	assert.True(t, ce.Retryable)
}

func TestUserHandler_Me(t *testing.T) {
	f := newFixture(t)
	me := f.user(t, "me")
	h := NewUserHandler(services.NewUserService(f.db, zap.NewNop()), f.events)

	r := gin.New()
	r.Use(withUser(me.ID))
	r.GET("/users/me", h.GetMe)
	r.PUT("/users/me", h.UpdateMe)
	r.GET("/users/me/events", h.MyEvents)

	w := doJSON(r, http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"me@example.com"`)

	w = doJSON(r, http.MethodGet, "/users/me/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Events []models.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.Empty(t, mine.Events)

	f.user(t, "other")
	w = doJSON(r, http.MethodPut, "/users/me", map[string]string{"email": "other@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPut, "/users/me", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPut, "/users/me", map[string]string{"name": "Me Myself", "email": "ME2@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"email":"me2@example.com"`)

	stored, err := f.db.GetUser(context.Background(), me.ID)
	require.NoError(t, err)
	assert.Equal(t, "Me Myself", stored.Name)
	assert.Equal(t, "me2@example.com", stored.Email)

	ghost := gin.New()
	ghost.Use(withUser(uuid.New()))
	ghost.GET("/users/me", h.GetMe)
	w = doJSON(ghost, http.MethodGet, "/users/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventHandler_UpdateDeleteOrganizerOnly(t *testing.T) {
	f := newFixture(t)
	org, bob := f.user(t, "org"), f.user(t, "bob")
	h := NewEventHandler(f.events, f.countdown)

	router := func(userID uuid.UUID) *gin.Engine {
		r := gin.New()
		r.Use(withUser(userID))
		r.GET("/events/nearest", h.Nearest)
		r.PUT("/events/:id", h.Update)
		r.DELETE("/events/:id", h.Delete)
		return r
	}
	asOrg, asBob := router(org.ID), router(bob.ID)

	event, err := f.events.Create(context.Background(), org.ID, services.CreateEventInput{
		Title:    "Picnic",
		Location: "Park",
		Date:     time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02"),
		Time:     "11:00 AM",
	})
	require.NoError(t, err)
	_, err = f.events.Join(context.Background(), event.ID, bob.ID, nil)
	require.NoError(t, err)
	path := "/events/" + event.ID.String()

	w := doJSON(asBob, http.MethodPut, path, map[string]string{"title": "Bob's picnic"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(asOrg, http.MethodPut, path, map[string]interface{}{"title": "Big picnic", "capacity": 50})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := f.db.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Big picnic", stored.Title)
	assert.Equal(t, 50, stored.Capacity)
	assert.Len(t, stored.Participants, 1)

	w = doJSON(asBob, http.MethodGet, "/events/nearest", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(asBob, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(asOrg, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(asBob, http.MethodGet, "/events/nearest", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(asOrg, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageHandler_ClosedConnectionAbandonsWork(t *testing.T) {
	f := newFixture(t)
	u1, u2 := f.user(t, "u1"), f.user(t, "u2")
	c1 := f.connect(u1.ID)

	c1.Close()

	err := f.intents.HandleMessage(c1, intent(t, websocket.TypeSendMessage, map[string]string{
		"receiver_id": u2.ID.String(),
		"body":        "too late",
	}))
	require.Error(t, err)
	var ce *websocket.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "persistence_failure", ce.Code)

	history, err := f.chat.History(context.Background(), u1.ID.String(), u2.ID.String())
	require.NoError(t, err)
	assert.Empty(t, history)
}
