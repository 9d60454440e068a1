package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/identity"
	"realtime-service/internal/mocks"
	"realtime-service/internal/models"
	"realtime-service/internal/realtime"
)

func setupGateway(t *testing.T, verifier identity.Verifier) (*httptest.Server, *realtime.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := realtime.NewHub()
	gateway := NewGatewayHandler(hub, verifier, time.Second)

	router := gin.New()
	router.GET("/ws", gateway.Handle)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, hub
}

func wsURL(server *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
}

func readEvent(t *testing.T, conn *websocket.Conn) models.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event models.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestGatewayRejectsInvalidToken(t *testing.T) {
	verifier := new(mocks.VerifierMock)
	verifier.On("Verify", mock.Anything, "bad-token").Return(nil, identity.ErrInvalidCredential).Once()
	server, _ := setupGateway(t, verifier)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "?token=bad-token"), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Nil(t, conn)
	verifier.AssertExpectations(t)
}

func TestGatewayHandshakeAndEventFlow(t *testing.T) {
	verifier := new(mocks.VerifierMock)
	verifier.On("Verify", mock.Anything, "good-token").
		Return(identity.Identity{UserID: "u1", DisplayName: "Ann"}, nil).Once()
	server, hub := setupGateway(t, verifier)

	header := http.Header{"Authorization": []string{"Bearer good-token"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server, ""), header)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	defer conn.Close()

	// registration announces presence platform-wide, which includes us
	presence := readEvent(t, conn)
	require.Equal(t, models.EventUserStatusChange, presence.Type)

	require.NoError(t, conn.WriteJSON(models.ClientEvent{Type: models.ActionJoinThread, ThreadID: "t1"}))
	require.NoError(t, conn.WriteJSON(models.ClientEvent{
		Type:     models.ActionSendMessage,
		ThreadID: "t1",
		Body:     []byte(`{"text":"hi"}`),
	}))

	// as a room member we get the broadcast, then the sender-only ack
	first := readEvent(t, conn)
	require.Equal(t, models.EventNewMessage, first.Type)
	second := readEvent(t, conn)
	require.Equal(t, models.EventMessageSent, second.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	errEvent := readEvent(t, conn)
	require.Equal(t, models.EventError, errEvent.Type)

	require.NoError(t, conn.WriteJSON(models.ClientEvent{Type: "bogus"}))
	errEvent = readEvent(t, conn)
	require.Equal(t, models.EventError, errEvent.Type)

	require.True(t, hub.IsOnline("u1"))
	verifier.AssertExpectations(t)
}

func TestGatewayDisconnectCleansUp(t *testing.T) {
	verifier := new(mocks.VerifierMock)
	verifier.On("Verify", mock.Anything, "good-token").
		Return(identity.Identity{UserID: "u1"}, nil).Once()
	server, hub := setupGateway(t, verifier)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, "?token=good-token"), nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(models.ClientEvent{Type: models.ActionJoinThread, ThreadID: "t1"}))
	require.Eventually(t, func() bool {
		members := hub.MembersOf("t1")
		return len(members) == 1 && members[0] == "u1"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return !hub.IsOnline("u1") && len(hub.MembersOf("t1")) == 0
	}, 2*time.Second, 10*time.Millisecond)
	verifier.AssertExpectations(t)
}

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc", bearerToken("Bearer abc"))
	require.Equal(t, "abc", bearerToken("bearer abc"))
	require.Equal(t, "", bearerToken("abc"))
	require.Equal(t, "", bearerToken("Basic abc"))
	require.Equal(t, "", bearerToken(""))
}
