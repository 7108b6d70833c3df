package memory

import (
	"context"
	"strconv"
	"testing"

	"linkchat-be/internal/entity"
	"linkchat-be/internal/repository/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRoom(t *testing.T, s *ChatStore, messageCount int) string {
	t.Helper()
	ctx := context.Background()
	room := &entity.ChatRoom{Id: "room1", Name: "Test"}
	require.NoError(t, s.CreateRoom(ctx, room))
	for i := 0; i < messageCount; i++ {
		require.NoError(t, s.AppendMessage(ctx, room.Id, &entity.Message{
			Id:   "msg" + strconv.Itoa(i),
			Text: "text " + strconv.Itoa(i),
		}))
	}
	return room.Id
}

func TestCreateRoomRejectsDuplicate(t *testing.T) {
	s := NewChatStore()
	ctx := context.Background()

	require.NoError(t, s.CreateRoom(ctx, &entity.ChatRoom{Id: "dup"}))
	assert.Error(t, s.CreateRoom(ctx, &entity.ChatRoom{Id: "dup"}))
}

func TestLoadRoomAbsentIsNil(t *testing.T) {
	s := NewChatStore()
	room, members, err := s.LoadRoom(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, room)
	assert.Nil(t, members)
}

func TestAppendMessageBumpsCount(t *testing.T) {
	s := NewChatStore()
	roomId := seedRoom(t, s, 3)

	room, _, err := s.LoadRoom(context.Background(), roomId)
	require.NoError(t, err)
	assert.Equal(t, int64(3), room.MessageCount)
}

func TestPageMessagesFromEnd(t *testing.T) {
	s := NewChatStore()
	roomId := seedRoom(t, s, 10)

	page, err := s.PageMessages(context.Background(), roomId, 4, contract.MessageCursor{})
	require.NoError(t, err)
	require.Len(t, page, 4)
	// Oldest-first within the page, ending at the newest message.
	assert.Equal(t, "msg6", page[0].Id)
	assert.Equal(t, "msg9", page[3].Id)
}

func TestPageMessagesBeforeAnchor(t *testing.T) {
	s := NewChatStore()
	roomId := seedRoom(t, s, 10)

	page, err := s.PageMessages(context.Background(), roomId, 3, contract.MessageCursor{LastMessageId: "msg5"})
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "msg2", page[0].Id)
	assert.Equal(t, "msg4", page[2].Id)
}

func TestPageMessagesByLoadedCount(t *testing.T) {
	s := NewChatStore()
	roomId := seedRoom(t, s, 10)

	page, err := s.PageMessages(context.Background(), roomId, 4, contract.MessageCursor{LoadedCount: 7})
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "msg0", page[0].Id)
	assert.Equal(t, "msg2", page[2].Id)
}

func TestPageMessagesExhausted(t *testing.T) {
	s := NewChatStore()
	roomId := seedRoom(t, s, 5)

	page, err := s.PageMessages(context.Background(), roomId, 10, contract.MessageCursor{LoadedCount: 5})
	require.NoError(t, err)
	assert.Empty(t, page)

	page, err = s.PageMessages(context.Background(), roomId, 10, contract.MessageCursor{LastMessageId: "msg0"})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestPageSizeNeverExceedsRemaining(t *testing.T) {
	s := NewChatStore()
	roomId := seedRoom(t, s, 6)

	for loaded := 0; loaded <= 6; loaded++ {
		for count := 1; count <= 8; count++ {
			page, err := s.PageMessages(context.Background(), roomId, count, contract.MessageCursor{LoadedCount: loaded})
			require.NoError(t, err)

			want := 6 - loaded
			if count < want {
				want = count
			}
			assert.Len(t, page, want, "loaded=%d count=%d", loaded, count)
		}
	}
}

func TestMemberLifecycle(t *testing.T) {
	s := NewChatStore()
	roomId := seedRoom(t, s, 0)
	ctx := context.Background()

	member := &entity.Member{Id: "u1", Name: "alice", Token: "tok", Active: true}
	require.NoError(t, s.AddMember(ctx, roomId, member))
	assert.Error(t, s.AddMember(ctx, roomId, member))

	member.Active = false
	require.NoError(t, s.UpdateMember(ctx, roomId, member))

	_, members, err := s.LoadRoom(ctx, roomId)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.False(t, members[0].Active)

	assert.Error(t, s.UpdateMember(ctx, roomId, &entity.Member{Id: "ghost"}))
}

func TestReturnedMessagesAreCopies(t *testing.T) {
	s := NewChatStore()
	roomId := seedRoom(t, s, 1)
	ctx := context.Background()

	msg, err := s.GetMessage(ctx, roomId, "msg0")
	require.NoError(t, err)
	require.NotNil(t, msg)
	msg.Text = "mutated"

	again, err := s.GetMessage(ctx, roomId, "msg0")
	require.NoError(t, err)
	assert.Equal(t, "text 0", again.Text)
}

func TestDeleteRoom(t *testing.T) {
	s := NewChatStore()
	roomId := seedRoom(t, s, 2)
	ctx := context.Background()

	require.NoError(t, s.DeleteRoom(ctx, roomId))
	room, _, err := s.LoadRoom(ctx, roomId)
	require.NoError(t, err)
	assert.Nil(t, room)
}

func TestUnsubscribeStore(t *testing.T) {
	s := NewUnsubscribeStore()
	ctx := context.Background()

	unsub, err := s.IsUnsubscribed(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, unsub)

	require.NoError(t, s.Unsubscribe(ctx, "a@example.com"))
	unsub, _ = s.IsUnsubscribed(ctx, "a@example.com")
	assert.True(t, unsub)

	// Idempotent both ways.
	require.NoError(t, s.Unsubscribe(ctx, "a@example.com"))
	require.NoError(t, s.Resubscribe(ctx, "a@example.com"))
	require.NoError(t, s.Resubscribe(ctx, "a@example.com"))
	unsub, _ = s.IsUnsubscribed(ctx, "a@example.com")
	assert.False(t, unsub)
}
