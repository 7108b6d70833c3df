package chat

import (
	"encoding/json"
	"errors"

	"linkchat-be/internal/entity"
)

// Wire frames are JSON objects with a numeric "type" field.
// Client-to-server types:
const (
	frameHandshake     = 0
	frameNewMessage    = 1
	frameLoadMessages  = 2
	frameStatusUpdate  = 3
	frameMailNotify    = 4
	frameUploadRequest = 5
	frameUploadPart    = 6
)

// Server-to-client types:
const (
	pushHandshake     = 0
	pushNewMessage    = 10
	pushMessageUpdate = 11 // reserved: update/remove overlay, never stored
	pushRoster        = 12
	pushStatus        = 13
	pushMessagePage   = 20
	pushMailCount     = 21
	pushUploadVerdict = 22
	pushUploadPartAck = 23
)

var (
	errBadFrame     = errors.New("malformed frame")
	errUnknownFrame = errors.New("unknown frame type")
)

// Frame is the closed set of inbound frame kinds. Dispatch switches over
// the concrete types exhaustively.
type Frame interface{ frameType() int }

type HandshakeFrame struct {
	ChatId string `json:"chatId"`
	UserId string `json:"userId"`
	Hash   string `json:"hash"`
	Time   int64  `json:"time"`
}

type NewMessageFrame struct {
	MessageText string `json:"messageText"`
	Hash        string `json:"hash"`
	Time        int64  `json:"time"`
}

type LoadMessagesFrame struct {
	Count               int    `json:"count"`
	LastMessageId       string `json:"lastMessageId"`
	LoadedMessagesCount int    `json:"loadedMessagesCount"`
}

type StatusFrame struct {
	Status string `json:"status"`
}

type MailNotifyFrame struct {
	MessageId string `json:"messageId"`
	Hash      string `json:"hash"`
	Time      int64  `json:"time"`
}

type UploadRequestFrame struct {
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
	FileSize    int64  `json:"fileSize"`
	MessageText string `json:"messageText"`
	Hash        string `json:"hash"`
	Time        int64  `json:"time"`
}

type UploadPartFrame struct {
	MessageId string `json:"messageId"`
	PartIndex int    `json:"partIndex"`
	Part      string `json:"part"` // base64 chunk
}

func (HandshakeFrame) frameType() int     { return frameHandshake }
func (NewMessageFrame) frameType() int    { return frameNewMessage }
func (LoadMessagesFrame) frameType() int  { return frameLoadMessages }
func (StatusFrame) frameType() int        { return frameStatusUpdate }
func (MailNotifyFrame) frameType() int    { return frameMailNotify }
func (UploadRequestFrame) frameType() int { return frameUploadRequest }
func (UploadPartFrame) frameType() int    { return frameUploadPart }

// DecodeFrame parses a raw wire frame into its typed form. Unknown or
// malformed frames return an error; the caller drops them silently.
func DecodeFrame(raw []byte) (Frame, error) {
	var probe struct {
		Type *int `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.Type == nil {
		return nil, errBadFrame
	}

	var frame Frame
	switch *probe.Type {
	case frameHandshake:
		frame = &HandshakeFrame{}
	case frameNewMessage:
		frame = &NewMessageFrame{}
	case frameLoadMessages:
		frame = &LoadMessagesFrame{}
	case frameStatusUpdate:
		frame = &StatusFrame{}
	case frameMailNotify:
		frame = &MailNotifyFrame{}
	case frameUploadRequest:
		frame = &UploadRequestFrame{}
	case frameUploadPart:
		frame = &UploadPartFrame{}
	default:
		return nil, errUnknownFrame
	}

	if err := json.Unmarshal(raw, frame); err != nil {
		return nil, errBadFrame
	}
	return frame, nil
}

// RosterEntry is one member as broadcast in a type-12 roster snapshot.
// The secret token never appears here.
type RosterEntry struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Active    bool   `json:"active"`
	LastSeen  int64  `json:"lastSeen"`
}

type handshakePush struct {
	Type     int    `json:"type"`
	ChatName string `json:"chatName"`
}

type newMessagePush struct {
	Type              int             `json:"type"`
	Message           *entity.Message `json:"message"`
	TotalMessageCount int64           `json:"totalMessageCount"`
}

type rosterPush struct {
	Type     int           `json:"type"`
	UserList []RosterEntry `json:"userList"`
}

type statusPush struct {
	Type   int    `json:"type"`
	UserId string `json:"userId"`
	Status string `json:"status"`
}

type messagePagePush struct {
	Type              int               `json:"type"`
	Messages          []*entity.Message `json:"messages"`
	TotalMessageCount int64             `json:"totalMessageCount"`
}

type mailCountPush struct {
	Type      int    `json:"type"`
	MessageId string `json:"messageId"`
	Count     int    `json:"count"`
}

type uploadVerdictPush struct {
	Type      int    `json:"type"`
	Accepted  bool   `json:"accepted"`
	MessageId string `json:"messageId,omitempty"`
}

type uploadPartAckPush struct {
	Type      int    `json:"type"`
	MessageId string `json:"messageId"`
	NextPart  int    `json:"nextPart"`
	Done      bool   `json:"done"`
	Failed    bool   `json:"failed"`
}

func encodePush(v interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
