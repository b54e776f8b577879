package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumisync/internal/adapter/api"
	"lumisync/internal/adapter/api/handler"
	"lumisync/internal/adapter/api/middleware"
	"lumisync/internal/adapter/repository"
	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/service"
	"lumisync/internal/infrastructure/firebase"
	"lumisync/internal/infrastructure/livesync"
	"lumisync/internal/infrastructure/ratelimit"
	"lumisync/internal/infrastructure/storage"
	ws "lumisync/internal/infrastructure/websocket"
	"lumisync/internal/usecase"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	echo  *echo.Echo
	store *repository.MemoryDocumentStore
	blobs *storage.MemoryBlobStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := repository.NewMemoryDocumentStore()
	blobs := storage.NewMemoryBlobStore("https://blobs.test")
	seed(t, store)

	userRepo := repository.NewUserRepository(store)
	propertyRepo := repository.NewPropertyRepository(store)
	resolver := usecase.NewRoleResolver(userRepo)
	limiter := ratelimit.NewRateLimiter()

	tickets := usecase.NewTicketUseCase(repository.NewTicketRepository(store), userRepo, propertyRepo, resolver, blobs, limiter)
	chat := usecase.NewChatUseCase(repository.NewConversationRepository(store), userRepo, propertyRepo, resolver, limiter)
	contacts := usecase.NewContactUseCase(repository.NewContactRepository(store), resolver, limiter)
	screens := usecase.NewScreenUseCase(store, livesync.NewBatchedFetcher(store, 10), resolver, usecase.NewProfileUseCase(userRepo))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	wsManager := ws.NewManager(screens, limiter)
	wsManager.Start(ctx)

	handler.Setup(tickets, chat, contacts, wsManager, 1024, nil)

	e := echo.New()
	e.Validator = api.NewValidator()
	Setup(e, middleware.NewAuthMiddleware(firebase.NewDevTokenVerifier(nil)))

	return &testServer{echo: e, store: store, blobs: blobs}
}

func seed(t *testing.T, store *repository.MemoryDocumentStore) {
	t.Helper()
	docs := []struct {
		collection, id string
		fields         map[string]interface{}
	}{
		{docstore.CollectionUsers, "m1", map[string]interface{}{"userType": "manager", "name": "Morgan", "managerOf": []interface{}{"p1"}}},
		{docstore.CollectionUsers, "m2", map[string]interface{}{"userType": "manager", "name": "Quinn", "managerOf": []interface{}{"p3"}}},
		{docstore.CollectionUsers, "r1", map[string]interface{}{"userType": "renter", "name": "Riley", "propertyId": "p1", "roomNumber": "4B"}},
		{docstore.CollectionProperties, "p1", map[string]interface{}{"name": "Maple Court", "address": "1 Maple St", "ownerUid": "m1"}},
		{docstore.CollectionProperties, "p3", map[string]interface{}{"name": "Cedar Flats", "ownerUid": "m2"}},
	}
	for _, d := range docs {
		require.NoError(t, store.Set(context.Background(), d.collection, d.id, d.fields, false))
	}
}

func (s *testServer) do(t *testing.T, req *http.Request, uid string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+firebase.DevTokenPrefix+uid)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	var body envelope
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
	}
	return rec, body
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func ticketForm(t *testing.T, description string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("description", description))
	if image != nil {
		part, err := w.CreateFormFile("image", "leak.jpg")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/tickets/complaints", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func (s *testServer) createComplaint(t *testing.T, uid string) map[string]interface{} {
	t.Helper()
	rec, body := s.do(t, ticketForm(t, "Leaking tap", []byte("jpeg")), uid)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var ticket map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Data, &ticket))
	return ticket
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/me/manager", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/me/manager", nil)
	req.Header.Set("Authorization", "Bearer not-a-dev-token")
	rec, _ = s.do(t, req, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateTicketWithImage(t *testing.T) {
	s := newTestServer(t)

	ticket := s.createComplaint(t, "r1")

	assert.Equal(t, "p1", ticket["property_id"])
	assert.Equal(t, "4B", ticket["room_number"])
	assert.Equal(t, "1 Maple St", ticket["property_address"])
	assert.Equal(t, "open", ticket["status"])
	url, _ := ticket["image_url"].(string)
	assert.True(t, strings.HasPrefix(url, "https://blobs.test/complaintImages/r1_"), url)
}

func TestCreateTicketRejectsOversizedImage(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, ticketForm(t, "Broken window", bytes.Repeat([]byte("x"), 2048)), "r1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	docs, err := s.store.Query(context.Background(), docstore.Query{Collection: docstore.CollectionComplaints})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestUnknownTicketKind(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/tickets/payments/abc", nil), "r1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTicketVisibilityOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ticket := s.createComplaint(t, "r1")
	path := "/v1/tickets/complaints/" + ticket["id"].(string)

	rec, _ := s.do(t, httptest.NewRequest(http.MethodGet, path, nil), "m1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, path, nil), "m2")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateTicketStatus(t *testing.T) {
	s := newTestServer(t)
	ticket := s.createComplaint(t, "r1")
	path := "/v1/tickets/complaints/" + ticket["id"].(string) + "/status"

	rec, body := s.do(t, jsonRequest(http.MethodPatch, path, map[string]string{"status": "reopened"}), "m1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)

	rec, _ = s.do(t, jsonRequest(http.MethodPatch, path, map[string]string{"status": "closed"}), "r1")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = s.do(t, jsonRequest(http.MethodPatch, path, map[string]string{"status": "closed"}), "m1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Data, &updated))
	assert.Equal(t, "closed", updated["status"])
}

func TestDeleteTicket(t *testing.T) {
	s := newTestServer(t)
	ticket := s.createComplaint(t, "r1")
	path := "/v1/tickets/complaints/" + ticket["id"].(string)

	rec, _ := s.do(t, httptest.NewRequest(http.MethodDelete, path, nil), "m2")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, httptest.NewRequest(http.MethodDelete, path, nil), "r1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, path, nil), "r1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessageAndFetchConversation(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, jsonRequest(http.MethodPost, "/v1/conversations/m1/messages", map[string]string{"text": "Hello"}), "r1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/conversations/r1", nil), "m1")
	require.Equal(t, http.StatusOK, rec.Code)
	var conversation map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Data, &conversation))
	assert.Equal(t, service.ConversationID("r1", "m1"), conversation["id"])
	assert.Equal(t, "Hello", conversation["last_message_text"])
}

func TestSendMessageRequiresText(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, jsonRequest(http.MethodPost, "/v1/conversations/m1/messages", map[string]string{"text": ""}), "r1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
}

func TestMyManager(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/me/manager", nil), "r1")
	require.Equal(t, http.StatusOK, rec.Code)
	var contact usecase.ManagerContact
	require.NoError(t, json.Unmarshal(body.Data, &contact))
	assert.Equal(t, "m1", contact.Manager.UserID)
	assert.Equal(t, "Morgan", contact.Manager.Name)
	assert.Equal(t, "Maple Court", contact.PropertyName)

	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/v1/me/manager", nil), "m1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddContact(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"name": "Plumber", "phone": "555-0100", "email": "fix@pipes.test"}

	rec, _ := s.do(t, jsonRequest(http.MethodPost, "/v1/contacts", body), "r1")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := s.do(t, jsonRequest(http.MethodPost, "/v1/contacts", map[string]string{"email": "not-an-email", "name": "x"}), "m1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	rec, env = s.do(t, jsonRequest(http.MethodPost, "/v1/contacts", body), "m1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var contact map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &contact))
	assert.Equal(t, "Plumber", contact["name"])
	assert.Equal(t, true, contact["custom"])

	docs, err := s.store.Query(context.Background(), docstore.Query{Collection: docstore.CollectionContacts})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "m1", docs[0].String("createdById"))
}

func TestWebSocketStreamsScreen(t *testing.T) {
	s := newTestServer(t)
	s.createComplaint(t, "r1")

	srv := httptest.NewServer(s.echo)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws?token=" + firebase.DevTokenPrefix + "m1"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ws.WSMessage{Type: ws.MessageTypeActivate, Screen: "complaints"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg struct {
		Type   string                   `json:"type"`
		Screen string                   `json:"screen"`
		Items  []map[string]interface{} `json:"items"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.MessageTypeList, msg.Type)
	assert.Equal(t, "complaints", msg.Screen)
	require.Len(t, msg.Items, 1)
	assert.Equal(t, "Leaking tap", msg.Items[0]["description"])
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.echo)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	_, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
