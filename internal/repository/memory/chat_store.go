package memory

import (
	"context"
	"errors"
	"sync"

	"linkchat-be/internal/entity"
	"linkchat-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

var (
	errRoomExists  = errors.New("room already exists")
	errRoomMissing = errors.New("room does not exist")
	errNoSuchEntry = errors.New("no such entry")
)

// roomRecord is everything the ephemeral backend knows about one room.
// The mutex keeps the record consistent when the engine and an HTTP
// handler touch the same room concurrently.
type roomRecord struct {
	mu       sync.RWMutex
	room     entity.ChatRoom
	members  []*entity.Member
	messages []*entity.Message
}

// ChatStore is the in-process backend. Everything lives in a go-cache
// keyed by room id and disappears on restart. There is no cross-process
// sharing.
type ChatStore struct {
	rooms *cache.Cache
}

func NewChatStore() *ChatStore {
	return &ChatStore{
		// Rooms never expire on their own; the engine's idle eviction and
		// explicit DeleteRoom are the only reclamation paths.
		rooms: cache.New(cache.NoExpiration, 0),
	}
}

func (s *ChatStore) record(roomId string) (*roomRecord, bool) {
	if x, found := s.rooms.Get(roomId); found {
		return x.(*roomRecord), true
	}
	return nil, false
}

func (s *ChatStore) CreateRoom(_ context.Context, room *entity.ChatRoom) error {
	rec := &roomRecord{room: *room}
	if err := s.rooms.Add(room.Id, rec, cache.NoExpiration); err != nil {
		return errRoomExists
	}
	return nil
}

func (s *ChatStore) LoadRoom(_ context.Context, roomId string) (*entity.ChatRoom, []*entity.Member, error) {
	rec, found := s.record(roomId)
	if !found {
		return nil, nil, nil
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()

	room := rec.room
	members := make([]*entity.Member, len(rec.members))
	for i, m := range rec.members {
		cp := *m
		members[i] = &cp
	}
	return &room, members, nil
}

func (s *ChatStore) DeleteRoom(_ context.Context, roomId string) error {
	s.rooms.Delete(roomId)
	return nil
}

func (s *ChatStore) AddMember(_ context.Context, roomId string, member *entity.Member) error {
	rec, found := s.record(roomId)
	if !found {
		return errRoomMissing
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	for _, m := range rec.members {
		if m.Id == member.Id {
			return errors.New("member already exists")
		}
	}
	cp := *member
	rec.members = append(rec.members, &cp)
	return nil
}

func (s *ChatStore) UpdateMember(_ context.Context, roomId string, member *entity.Member) error {
	rec, found := s.record(roomId)
	if !found {
		return errRoomMissing
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	for i, m := range rec.members {
		if m.Id == member.Id {
			cp := *member
			rec.members[i] = &cp
			return nil
		}
	}
	return errNoSuchEntry
}

func (s *ChatStore) AppendMessage(_ context.Context, roomId string, message *entity.Message) error {
	rec, found := s.record(roomId)
	if !found {
		return errRoomMissing
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	cp := *message
	rec.messages = append(rec.messages, &cp)
	rec.room.MessageCount++
	return nil
}

func (s *ChatStore) PageMessages(_ context.Context, roomId string, count int, cursor contract.MessageCursor) ([]*entity.Message, error) {
	rec, found := s.record(roomId)
	if !found {
		return []*entity.Message{}, nil
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()

	// end is the exclusive upper bound of the page (index into the
	// append-ordered slice).
	end := len(rec.messages)
	switch {
	case cursor.LastMessageId != "":
		end = 0
		for i, m := range rec.messages {
			if m.Id == cursor.LastMessageId {
				end = i
				break
			}
		}
	case cursor.LoadedCount > 0:
		end -= cursor.LoadedCount
	}

	if end < 0 {
		end = 0
	}
	start := end - count
	if start < 0 {
		start = 0
	}

	page := make([]*entity.Message, 0, end-start)
	for _, m := range rec.messages[start:end] {
		cp := *m
		page = append(page, &cp)
	}
	return page, nil
}

func (s *ChatStore) GetMessage(_ context.Context, roomId, messageId string) (*entity.Message, error) {
	rec, found := s.record(roomId)
	if !found {
		return nil, nil
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()

	for _, m := range rec.messages {
		if m.Id == messageId {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}
