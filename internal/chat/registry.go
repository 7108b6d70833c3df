package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"linkchat-be/internal/entity"
	"linkchat-be/internal/pkg/logger"
	"linkchat-be/internal/pkg/randstring"
	"linkchat-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Registry maps room ids to live sessions and guarantees at most one
// session per room. Cold opens for the same room are collapsed into a
// single load so concurrent joiners never race two sessions into
// existence.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	flights  map[string]*flight

	store       contract.ChatStore
	files       contract.AttachmentStore
	unsubscribe contract.UnsubscribeStore
	publisher   message.Publisher
	logger      logger.ILogger
	idleTimeout time.Duration
	dropEvicted bool
}

type flight struct {
	done chan struct{}
	s    *Session
	err  error
}

type RegistryOptions struct {
	Store       contract.ChatStore
	Files       contract.AttachmentStore
	Unsubscribe contract.UnsubscribeStore
	Publisher   message.Publisher
	Logger      logger.ILogger
	IdleTimeout time.Duration
	DropEvicted bool
}

func NewRegistry(opts RegistryOptions) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		flights:     make(map[string]*flight),
		store:       opts.Store,
		files:       opts.Files,
		unsubscribe: opts.Unsubscribe,
		publisher:   opts.Publisher,
		logger:      opts.Logger,
		idleTimeout: opts.IdleTimeout,
		dropEvicted: opts.DropEvicted,
	}
}

// CreateRoom allocates a fresh empty room and returns its id. The name is
// trimmed and clamped; a blank name falls back to "Chat". No session is
// opened yet; that happens on the first resolve.
func (r *Registry) CreateRoom(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Chat"
	}
	if len(name) > MaxNameLength {
		name = name[:MaxNameLength]
	}

	room := &entity.ChatRoom{
		Id:   randstring.NewRoomID(),
		Name: name,
	}
	if err := r.store.CreateRoom(ctx, room); err != nil {
		r.logger.Error("ChatRegistry", "Failed to create room", map[string]interface{}{"error": err})
		return "", err
	}
	r.logger.Info("ChatRegistry", "Room created", map[string]interface{}{"room_id": room.Id})
	return room.Id, nil
}

// ResolveOrOpen returns the live session for a room, loading it from the
// store when no session exists. Returns ErrRoomNotFound for unknown ids.
func (r *Registry) ResolveOrOpen(ctx context.Context, roomId string) (*Session, error) {
	if !randstring.IsValid(roomId, randstring.RoomIDLength) {
		return nil, ErrRoomNotFound
	}

	r.mu.Lock()
	if s, ok := r.sessions[roomId]; ok {
		r.mu.Unlock()
		return s, nil
	}
	if f, ok := r.flights[roomId]; ok {
		r.mu.Unlock()
		select {
		case <-f.done:
			return f.s, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f := &flight{done: make(chan struct{})}
	r.flights[roomId] = f
	r.mu.Unlock()

	f.s, f.err = r.openSession(ctx, roomId)

	r.mu.Lock()
	delete(r.flights, roomId)
	if f.err == nil {
		r.sessions[roomId] = f.s
	}
	r.mu.Unlock()
	close(f.done)

	return f.s, f.err
}

func (r *Registry) openSession(ctx context.Context, roomId string) (*Session, error) {
	room, members, err := r.store.LoadRoom(ctx, roomId)
	if err != nil {
		r.logger.Error("ChatRegistry", "Failed to load room", map[string]interface{}{"room_id": roomId, "error": err})
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	return newSession(room, members, sessionDeps{
		store:       r.store,
		files:       r.files,
		unsubscribe: r.unsubscribe,
		publisher:   r.publisher,
		logger:      r.logger,
		idleTimeout: r.idleTimeout,
		evict:       r.evictIdle,
	}), nil
}

// LiveCount reports how many sessions are currently open.
func (r *Registry) LiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// evictIdle runs when a session's idle timer fires. The session itself
// decides whether it is still idle; a connection that arrived between the
// timer firing and this call aborts the eviction.
func (r *Registry) evictIdle(roomId string) {
	r.mu.Lock()
	s, ok := r.sessions[roomId]
	if !ok {
		r.mu.Unlock()
		return
	}
	if !s.shutdownIfIdle() {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, roomId)
	r.mu.Unlock()

	r.logger.Info("ChatRegistry", "Idle session evicted", map[string]interface{}{"room_id": roomId})

	if r.dropEvicted {
		ctx, cancel := storeContext()
		defer cancel()
		if err := r.store.DeleteRoom(ctx, roomId); err != nil {
			r.logger.Error("ChatRegistry", "Failed to drop evicted room", map[string]interface{}{"room_id": roomId, "error": err})
		}
	}
}
