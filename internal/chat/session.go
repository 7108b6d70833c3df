package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"linkchat-be/internal/entity"
	"linkchat-be/internal/pkg/logger"
	"linkchat-be/internal/pkg/randstring"
	"linkchat-be/internal/repository/contract"
	"linkchat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	MaxRosterSize    = 256
	MaxMessageLength = 2000
	MaxNameLength    = 50

	storeTimeout = 10 * time.Second
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrSessionClosed = errors.New("session closed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRosterFull    = errors.New("roster full")
	ErrMemberExists  = errors.New("member already exists")
	ErrInvalidInput  = errors.New("invalid input")
)

// Transport is one live connection into a session. Send must never block:
// delivery is best-effort per connection. Close must be safe to call more
// than once.
type Transport interface {
	Send(data []byte) error
	Close() error
}

// Session is the per-room engine. Every mutating operation runs under one
// mutex, so operations on the same room never interleave; the in-memory
// effects of one handler are visible to the next before anything else can
// observe the room. Store calls happen inside the critical section too,
// which also means a session can never be torn down while one of its own
// storage calls is in flight.
type Session struct {
	mu           sync.Mutex
	id           string
	name         string
	messageCount int64
	members      []*entity.Member
	connections  map[string]Transport
	uploads      map[string]*entity.UploadSession
	idleTimer    *time.Timer
	closed       bool

	store       contract.ChatStore
	files       contract.AttachmentStore
	unsubscribe contract.UnsubscribeStore
	publisher   message.Publisher
	logger      logger.ILogger
	idleTimeout time.Duration
	evict       func(roomId string)
}

type sessionDeps struct {
	store       contract.ChatStore
	files       contract.AttachmentStore
	unsubscribe contract.UnsubscribeStore
	publisher   message.Publisher
	logger      logger.ILogger
	idleTimeout time.Duration
	evict       func(roomId string)
}

func newSession(room *entity.ChatRoom, members []*entity.Member, deps sessionDeps) *Session {
	s := &Session{
		id:           room.Id,
		name:         room.Name,
		messageCount: room.MessageCount,
		members:      members,
		connections:  make(map[string]Transport),
		uploads:      make(map[string]*entity.UploadSession),
		store:        deps.store,
		files:        deps.files,
		unsubscribe:  deps.unsubscribe,
		publisher:    deps.publisher,
		logger:       deps.logger,
		idleTimeout:  deps.idleTimeout,
		evict:        deps.evict,
	}
	// A fresh session has zero connections, so the idle clock starts now.
	s.mu.Lock()
	s.armIdleTimerLocked()
	s.mu.Unlock()
	s.logger.Info("ChatSession", "Session opened", map[string]interface{}{"room_id": s.id})
	return s
}

func (s *Session) Id() string { return s.id }

func (s *Session) Name() string { return s.name }

func (s *Session) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

// Member returns a copy of a roster member, nil when absent.
func (s *Session) Member(userId string) *entity.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.memberLocked(userId); m != nil {
		cp := *m
		return &cp
	}
	return nil
}

func (s *Session) MessageCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageCount
}

// Connect admits a transport for a roster member. The member must exist,
// be active and present a valid token hash. On success any previous
// connection for the member is force-closed, the idle timer is cancelled,
// the new connection gets the handshake frame and everyone gets a roster
// snapshot. On failure the transport is closed without a reply so nothing
// can be probed.
func (s *Session) Connect(t Transport, userId, hash string, timeMillis int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The transport stays open here: the caller retries against a fresh
	// session when it lost the race with an eviction.
	if s.closed {
		return ErrSessionClosed
	}

	m := s.memberLocked(userId)
	if m == nil || !m.Active || !VerifyHash(m.Token, hash, timeMillis, time.Now()) {
		t.Close()
		s.logger.Info("ChatSession", "Rejected connection", map[string]interface{}{"room_id": s.id, "user_id": userId})
		return ErrUnauthorized
	}

	if old, ok := s.connections[userId]; ok {
		old.Close()
		delete(s.connections, userId)
	}
	s.connections[userId] = t
	s.stopIdleTimerLocked()

	t.Send(encodePush(handshakePush{Type: pushHandshake, ChatName: s.name}))
	s.pushRosterLocked()

	s.logger.Info("ChatSession", "Member connected", map[string]interface{}{"room_id": s.id, "user_id": userId})
	return nil
}

// Disconnect removes a member's connection. The transport argument guards
// against a stale read loop tearing down a replacement connection: when
// non-nil, removal only happens if it is still the registered transport.
// When the last connection goes, the idle eviction timer is armed.
func (s *Session) Disconnect(userId string, t Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	current, ok := s.connections[userId]
	if !ok || (t != nil && current != t) {
		return
	}
	current.Close()
	delete(s.connections, userId)

	if m := s.memberLocked(userId); m != nil {
		m.LastSeen = time.Now().UnixMilli()
		ctx, cancel := storeContext()
		if err := s.store.UpdateMember(ctx, s.id, m); err != nil {
			s.logger.Error("ChatSession", "Failed to persist last-seen", map[string]interface{}{"room_id": s.id, "user_id": userId, "error": err})
		}
		cancel()
	}

	s.pushRosterLocked()
	if len(s.connections) == 0 {
		s.armIdleTimerLocked()
	}
	s.logger.Info("ChatSession", "Member disconnected", map[string]interface{}{"room_id": s.id, "user_id": userId})
}

// Dispatch routes one raw frame from a connected member. Malformed or
// unknown frames are dropped with a log and nothing else.
func (s *Session) Dispatch(userId string, raw []byte) {
	frame, err := DecodeFrame(raw)
	if err != nil {
		s.logger.Warn("ChatSession", "Dropped frame", map[string]interface{}{"room_id": s.id, "user_id": userId, "error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	t, connected := s.connections[userId]
	if !connected {
		return
	}

	switch f := frame.(type) {
	case *HandshakeFrame:
		// Already admitted; a second handshake is meaningless.
	case *NewMessageFrame:
		s.postMessageLocked(userId, f)
	case *LoadMessagesFrame:
		s.sendMessagesLocked(t, f)
	case *StatusFrame:
		s.pushStatusLocked(userId, f.Status)
	case *MailNotifyFrame:
		s.mailNotifyLocked(t, userId, f)
	case *UploadRequestFrame:
		s.acceptUploadLocked(t, userId, f)
	case *UploadPartFrame:
		s.submitPartLocked(t, userId, f)
	}
}

// AddMember joins a new pseudo-identity and returns its secret token. The
// token is only ever handed out here.
func (s *Session) AddMember(userId, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrSessionClosed
	}
	if !randstring.IsValid(userId, randstring.MemberIDLength) {
		return "", ErrInvalidInput
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidInput
	}
	if len(name) > MaxNameLength {
		name = name[:MaxNameLength]
	}
	if s.memberLocked(userId) != nil {
		return "", ErrMemberExists
	}
	if len(s.members) >= MaxRosterSize {
		return "", ErrRosterFull
	}

	member := &entity.Member{
		Id:       userId,
		Name:     name,
		Token:    randstring.NewToken(),
		Active:   true,
		LastSeen: time.Now().UnixMilli(),
	}

	ctx, cancel := storeContext()
	defer cancel()
	if err := s.store.AddMember(ctx, s.id, member); err != nil {
		s.logger.Error("ChatSession", "Failed to persist member", map[string]interface{}{"room_id": s.id, "user_id": userId, "error": err})
		return "", err
	}
	s.members = append(s.members, member)

	s.postSystemMessageLocked(name + " joined the chat")
	s.pushRosterLocked()
	s.logger.Info("ChatSession", "Member joined", map[string]interface{}{"room_id": s.id, "user_id": userId})
	return member.Token, nil
}

// SetMemberActive flips a member's active flag. Deactivating also closes
// the member's live connection, since inactive members may not connect.
func (s *Session) SetMemberActive(userId, hash string, timeMillis int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	m := s.memberLocked(userId)
	if m == nil || !VerifyHash(m.Token, hash, timeMillis, time.Now()) {
		return ErrUnauthorized
	}
	if m.Active == active {
		return nil
	}

	updated := *m
	updated.Active = active
	updated.LastSeen = time.Now().UnixMilli()

	ctx, cancel := storeContext()
	defer cancel()
	if err := s.store.UpdateMember(ctx, s.id, &updated); err != nil {
		s.logger.Error("ChatSession", "Failed to persist active flag", map[string]interface{}{"room_id": s.id, "user_id": userId, "error": err})
		return err
	}
	*m = updated

	if active {
		s.postSystemMessageLocked(m.Name + " rejoined the chat")
	} else {
		s.postSystemMessageLocked(m.Name + " left the chat")
		if c, ok := s.connections[userId]; ok {
			c.Close()
			delete(s.connections, userId)
		}
	}
	s.pushRosterLocked()
	if len(s.connections) == 0 {
		s.armIdleTimerLocked()
	}
	return nil
}

func (s *Session) postMessageLocked(userId string, f *NewMessageFrame) {
	m := s.memberLocked(userId)
	if m == nil || !m.Active || !VerifyHash(m.Token, f.Hash, f.Time, time.Now()) {
		s.logger.Warn("ChatSession", "Dropped message with bad auth", map[string]interface{}{"room_id": s.id, "user_id": userId})
		return
	}

	text := f.MessageText
	if len(text) > MaxMessageLength {
		text = text[:MaxMessageLength]
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	msg := &entity.Message{
		Id:     randstring.NewMessageID(),
		UserId: userId,
		Time:   f.Time,
		Text:   text,
		Emails: ExtractEmails(text),
	}
	s.appendAndBroadcastLocked(msg)
}

func (s *Session) postSystemMessageLocked(text string) {
	msg := &entity.Message{
		Id:     randstring.NewMessageID(),
		Time:   time.Now().UnixMilli(),
		System: text,
	}
	s.appendAndBroadcastLocked(msg)
}

// appendAndBroadcastLocked persists first, then bumps the counter and
// fans out. A store failure drops the message entirely; the in-memory
// counter never runs ahead of the persisted state.
func (s *Session) appendAndBroadcastLocked(msg *entity.Message) bool {
	ctx, cancel := storeContext()
	defer cancel()
	if err := s.store.AppendMessage(ctx, s.id, msg); err != nil {
		s.logger.Error("ChatSession", "Failed to persist message", map[string]interface{}{"room_id": s.id, "message_id": msg.Id, "error": err})
		return false
	}
	s.messageCount++
	s.broadcastLocked(encodePush(newMessagePush{
		Type:              pushNewMessage,
		Message:           msg,
		TotalMessageCount: s.messageCount,
	}))
	return true
}

func (s *Session) sendMessagesLocked(t Transport, f *LoadMessagesFrame) {
	if f.Count <= 0 {
		return
	}

	cursor := contract.MessageCursor{
		LastMessageId: f.LastMessageId,
		LoadedCount:   f.LoadedMessagesCount,
	}
	ctx, cancel := storeContext()
	defer cancel()
	messages, err := s.store.PageMessages(ctx, s.id, f.Count, cursor)
	if err != nil {
		s.logger.Error("ChatSession", "Failed to page messages", map[string]interface{}{"room_id": s.id, "error": err})
		return
	}
	if messages == nil {
		messages = []*entity.Message{}
	}

	t.Send(encodePush(messagePagePush{
		Type:              pushMessagePage,
		Messages:          messages,
		TotalMessageCount: s.messageCount,
	}))
}

func (s *Session) pushStatusLocked(userId, status string) {
	if status == "" {
		return
	}
	raw := encodePush(statusPush{Type: pushStatus, UserId: userId, Status: status})
	for id, t := range s.connections {
		if id == userId {
			continue
		}
		t.Send(raw)
	}
}

func (s *Session) mailNotifyLocked(t Transport, userId string, f *MailNotifyFrame) {
	m := s.memberLocked(userId)
	if m == nil || !VerifyHash(m.Token, f.Hash, f.Time, time.Now()) {
		return
	}

	ctx, cancel := storeContext()
	defer cancel()
	msg, err := s.store.GetMessage(ctx, s.id, f.MessageId)
	if err != nil {
		s.logger.Error("ChatSession", "Failed to load message for notification", map[string]interface{}{"room_id": s.id, "message_id": f.MessageId, "error": err})
		return
	}
	// Only the author may notify, and only when addresses were extracted.
	if msg == nil || msg.UserId != userId || len(msg.Emails) == 0 {
		t.Send(encodePush(mailCountPush{Type: pushMailCount, MessageId: f.MessageId, Count: 0}))
		return
	}

	// Opted-out addresses don't count toward the reply.
	addresses := make([]string, 0, len(msg.Emails))
	for _, address := range msg.Emails {
		optedOut, err := s.unsubscribe.IsUnsubscribed(ctx, address)
		if err != nil {
			s.logger.Error("ChatSession", "Failed to check opt-out list", map[string]interface{}{"room_id": s.id, "error": err})
			continue
		}
		if !optedOut {
			addresses = append(addresses, address)
		}
	}
	if len(addresses) == 0 {
		t.Send(encodePush(mailCountPush{Type: pushMailCount, MessageId: msg.Id, Count: 0}))
		return
	}

	evt := events.MailNotificationEvent{
		RoomID:      s.id,
		MessageID:   msg.Id,
		SenderName:  m.Name,
		MessageText: msg.Text,
		Addresses:   addresses,
		OccurredAt:  time.Now(),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(events.TopicMailNotification, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		s.logger.Error("ChatSession", "Failed to publish mail event", map[string]interface{}{"room_id": s.id, "error": err})
		t.Send(encodePush(mailCountPush{Type: pushMailCount, MessageId: msg.Id, Count: 0}))
		return
	}

	s.postSystemMessageLocked(m.Name + " notified " + strings.Join(addresses, ", ") + " by mail")
	t.Send(encodePush(mailCountPush{Type: pushMailCount, MessageId: msg.Id, Count: len(addresses)}))
}

// shutdownIfIdle tears the session down if it still has zero connections.
// Returns false when a connection slipped in, which aborts the eviction.
func (s *Session) shutdownIfIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return true
	}
	if len(s.connections) > 0 {
		return false
	}

	s.closed = true
	s.stopIdleTimerLocked()
	for id, up := range s.uploads {
		if err := s.files.Discard(s.id, up.MessageId); err != nil {
			s.logger.Error("ChatSession", "Failed to purge upload artifacts", map[string]interface{}{"room_id": s.id, "message_id": up.MessageId, "error": err})
		}
		delete(s.uploads, id)
	}
	s.logger.Info("ChatSession", "Session closed", map[string]interface{}{"room_id": s.id})
	return true
}

func (s *Session) memberLocked(userId string) *entity.Member {
	for _, m := range s.members {
		if m.Id == userId {
			return m
		}
	}
	return nil
}

// broadcastLocked fans one encoded frame out to every connection. Sends
// are non-blocking; a slow connection loses frames rather than holding up
// the room.
func (s *Session) broadcastLocked(raw []byte) {
	if raw == nil {
		return
	}
	for _, t := range s.connections {
		t.Send(raw)
	}
}

func (s *Session) rosterLocked() []RosterEntry {
	roster := make([]RosterEntry, 0, len(s.members))
	for _, m := range s.members {
		_, connected := s.connections[m.Id]
		roster = append(roster, RosterEntry{
			Id:        m.Id,
			Name:      m.Name,
			Connected: connected,
			Active:    m.Active,
			LastSeen:  m.LastSeen,
		})
	}
	return roster
}

func (s *Session) pushRosterLocked() {
	s.broadcastLocked(encodePush(rosterPush{Type: pushRoster, UserList: s.rosterLocked()}))
}

func (s *Session) armIdleTimerLocked() {
	s.stopIdleTimerLocked()
	s.idleTimer = time.AfterFunc(s.idleTimeout, func() {
		s.evict(s.id)
	})
}

func (s *Session) stopIdleTimerLocked() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
}

func storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}
