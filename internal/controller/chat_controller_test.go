package controller

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"linkchat-be/internal/chat"
	"linkchat-be/internal/entity"
	"linkchat-be/internal/pkg/logger"
	"linkchat-be/internal/pkg/randstring"
	"linkchat-be/internal/pkg/serverutils"
	"linkchat-be/internal/repository/blob"
	"linkchat-be/internal/repository/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBackend struct {
	app   *fiber.App
	store *memory.ChatStore
	files *blob.FileStore
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()

	store := memory.NewChatStore()
	unsubscribe := memory.NewUnsubscribeStore()
	files, err := blob.NewFileStore(t.TempDir())
	require.NoError(t, err)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	nop := logger.NewNopLogger()

	registry := chat.NewRegistry(chat.RegistryOptions{
		Store:       store,
		Files:       files,
		Unsubscribe: unsubscribe,
		Publisher:   pubSub,
		Logger:      nop,
		IdleTimeout: time.Hour,
	})

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewChatController(registry, 10*time.Second, nop).RegisterRoutes(api)
	NewFileController(store, files, nop).RegisterRoutes(api)
	NewMailController(unsubscribe, nop).RegisterRoutes(api)

	return &testBackend{app: app, store: store, files: files}
}

func (b *testBackend) get(t *testing.T, path string, params url.Values) (*http.Response, serverutils.Envelope) {
	t.Helper()
	target := path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)

	resp, err := b.app.Test(req, -1)
	require.NoError(t, err)

	var env serverutils.Envelope
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	json.Unmarshal(body, &env)
	return resp, env
}

func authParams(token string) url.Values {
	now := time.Now().UnixMilli()
	sum := sha256.Sum256([]byte(token + strconv.FormatInt(now, 10)))
	return url.Values{
		"hash": {hex.EncodeToString(sum[:])},
		"time": {strconv.FormatInt(now, 10)},
	}
}

func TestNewChatReturnsRoomId(t *testing.T) {
	b := newTestBackend(t)

	resp, env := b.get(t, "/api/chat/new", url.Values{"chatName": {"My Room"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.False(t, env.Error)
	roomId, ok := env.Data.(string)
	require.True(t, ok)
	assert.True(t, randstring.IsValid(roomId, randstring.RoomIDLength))
}

func TestJoinFlow(t *testing.T) {
	b := newTestBackend(t)

	_, env := b.get(t, "/api/chat/new", url.Values{"chatName": {"Room"}})
	roomId := env.Data.(string)

	userId := randstring.New(randstring.MemberIDLength)
	resp, env := b.get(t, "/api/chat/join", url.Values{
		"chatId": {roomId}, "userId": {userId}, "userName": {"alice"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.False(t, env.Error)
	token, ok := env.Data.(string)
	require.True(t, ok)
	assert.True(t, randstring.IsValid(token, randstring.TokenLength))

	// Same identity twice fails.
	resp, env = b.get(t, "/api/chat/join", url.Values{
		"chatId": {roomId}, "userId": {userId}, "userName": {"alice again"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, env.Error)

	// Deactivate with a proper proof.
	params := authParams(token)
	params.Set("chatId", roomId)
	params.Set("userId", userId)
	params.Set("active", "false")
	resp, env = b.get(t, "/api/chat/active", params)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, env.Error)
}

func TestJoinValidation(t *testing.T) {
	b := newTestBackend(t)

	_, env := b.get(t, "/api/chat/new", nil)
	roomId := env.Data.(string)

	// Malformed user id.
	resp, env := b.get(t, "/api/chat/join", url.Values{
		"chatId": {roomId}, "userId": {"tooshort"}, "userName": {"alice"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, env.Error)

	// Unknown room.
	resp, env = b.get(t, "/api/chat/join", url.Values{
		"chatId":   {randstring.NewRoomID()},
		"userId":   {randstring.New(randstring.MemberIDLength)},
		"userName": {"alice"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, env.Error)
}

func TestSetActiveRejectsBadHash(t *testing.T) {
	b := newTestBackend(t)

	_, env := b.get(t, "/api/chat/new", nil)
	roomId := env.Data.(string)
	userId := randstring.New(randstring.MemberIDLength)
	b.get(t, "/api/chat/join", url.Values{
		"chatId": {roomId}, "userId": {userId}, "userName": {"alice"},
	})

	resp, env := b.get(t, "/api/chat/active", url.Values{
		"chatId": {roomId}, "userId": {userId},
		"hash":   {"deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"},
		"time":   {strconv.FormatInt(time.Now().UnixMilli(), 10)},
		"active": {"false"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, env.Error)
}

func seedAttachment(t *testing.T, b *testBackend, meta *entity.FileMeta, asImage bool, content []byte) (roomId, messageId string) {
	t.Helper()
	ctx := context.Background()
	roomId = randstring.NewRoomID()
	messageId = randstring.NewMessageID()
	require.NoError(t, b.store.CreateRoom(ctx, &entity.ChatRoom{Id: roomId, Name: "Room"}))

	msg := &entity.Message{Id: messageId, UserId: randstring.New(randstring.MemberIDLength), Time: time.Now().UnixMilli()}
	if asImage {
		msg.Image = meta
	} else {
		msg.File = meta
	}
	require.NoError(t, b.store.AppendMessage(ctx, roomId, msg))
	require.NoError(t, b.files.AppendPart(roomId, messageId, content))
	require.NoError(t, b.files.Finalize(roomId, messageId))
	return roomId, messageId
}

func TestFileDownloadHeaders(t *testing.T) {
	b := newTestBackend(t)

	roomId, messageId := seedAttachment(t, b, &entity.FileMeta{Name: "report.pdf", Type: "application/pdf"}, false, []byte("%PDF"))
	req, _ := http.NewRequest(http.MethodGet, "/api/file/"+roomId+"/"+messageId, nil)
	resp, err := b.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `attachment; filename="report.pdf"`)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, []byte("%PDF"), body)

	roomId, messageId = seedAttachment(t, b, &entity.FileMeta{Name: "pic.png", Type: "image/png"}, true, []byte("png bytes"))
	req, _ = http.NewRequest(http.MethodGet, "/api/file/"+roomId+"/"+messageId, nil)
	resp, err = b.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "inline", resp.Header.Get("Content-Disposition"))
	resp.Body.Close()
}

func TestFileDownloadUnknownIs404(t *testing.T) {
	b := newTestBackend(t)

	req, _ := http.NewRequest(http.MethodGet, "/api/file/"+randstring.NewRoomID()+"/"+randstring.NewMessageID(), nil)
	resp, err := b.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, "/api/file/bad-id/also-bad", nil)
	resp, err = b.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMailOptOutEndpoints(t *testing.T) {
	b := newTestBackend(t)
	address := url.Values{"address": {"alice@example.com"}}

	_, env := b.get(t, "/api/mail/isunsubscribed", address)
	require.False(t, env.Error)
	assert.Equal(t, false, env.Data)

	_, env = b.get(t, "/api/mail/unsubscribe", address)
	require.False(t, env.Error)

	_, env = b.get(t, "/api/mail/isunsubscribed", address)
	assert.Equal(t, true, env.Data)

	_, env = b.get(t, "/api/mail/resubscribe", address)
	require.False(t, env.Error)

	_, env = b.get(t, "/api/mail/isunsubscribed", address)
	assert.Equal(t, false, env.Data)

	// Not an address at all.
	resp, env := b.get(t, "/api/mail/unsubscribe", url.Values{"address": {"not-an-email"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, env.Error)
}
