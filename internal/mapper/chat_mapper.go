package mapper

import (
	"encoding/json"

	"linkchat-be/internal/entity"
	"linkchat-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) RoomToModel(r *entity.ChatRoom) *model.ChatRoom {
	if r == nil {
		return nil
	}
	return &model.ChatRoom{
		Id:           r.Id,
		Name:         r.Name,
		MessageCount: r.MessageCount,
	}
}

func (m *ChatMapper) RoomToEntity(r *model.ChatRoom) *entity.ChatRoom {
	if r == nil {
		return nil
	}
	return &entity.ChatRoom{
		Id:           r.Id,
		Name:         r.Name,
		MessageCount: r.MessageCount,
	}
}

func (m *ChatMapper) MemberToModel(roomId string, e *entity.Member) *model.ChatMember {
	if e == nil {
		return nil
	}
	return &model.ChatMember{
		RoomId:   roomId,
		Id:       e.Id,
		Name:     e.Name,
		Token:    e.Token,
		Active:   e.Active,
		LastSeen: e.LastSeen,
	}
}

func (m *ChatMapper) MemberToEntity(mm *model.ChatMember) *entity.Member {
	if mm == nil {
		return nil
	}
	return &entity.Member{
		Id:       mm.Id,
		Name:     mm.Name,
		Token:    mm.Token,
		Active:   mm.Active,
		LastSeen: mm.LastSeen,
	}
}

// attachmentDoc is the JSON column shape for image/file metadata.
type attachmentDoc struct {
	Kind string `json:"kind"` // "image" or "file"
	Name string `json:"name"`
	Type string `json:"type"`
}

func (m *ChatMapper) MessageToModel(roomId string, seq int64, e *entity.Message) *model.ChatMessage {
	if e == nil {
		return nil
	}
	mm := &model.ChatMessage{
		RoomId: roomId,
		Id:     e.Id,
		Seq:    seq,
		UserId: e.UserId,
		Time:   e.Time,
		Text:   e.Text,
		System: e.System,
	}
	if len(e.Emails) > 0 {
		if raw, err := json.Marshal(e.Emails); err == nil {
			mm.Emails = datatypes.JSON(raw)
		}
	}
	var doc *attachmentDoc
	if e.Image != nil {
		doc = &attachmentDoc{Kind: "image", Name: e.Image.Name, Type: e.Image.Type}
	} else if e.File != nil {
		doc = &attachmentDoc{Kind: "file", Name: e.File.Name, Type: e.File.Type}
	}
	if doc != nil {
		if raw, err := json.Marshal(doc); err == nil {
			mm.Attachment = datatypes.JSON(raw)
		}
	}
	return mm
}

func (m *ChatMapper) MessageToEntity(mm *model.ChatMessage) *entity.Message {
	if mm == nil {
		return nil
	}
	e := &entity.Message{
		Id:     mm.Id,
		UserId: mm.UserId,
		Time:   mm.Time,
		Text:   mm.Text,
		System: mm.System,
	}
	if len(mm.Emails) > 0 {
		var emails []string
		if err := json.Unmarshal(mm.Emails, &emails); err == nil {
			e.Emails = emails
		}
	}
	if len(mm.Attachment) > 0 {
		var doc attachmentDoc
		if err := json.Unmarshal(mm.Attachment, &doc); err == nil {
			meta := &entity.FileMeta{Name: doc.Name, Type: doc.Type}
			if doc.Kind == "image" {
				e.Image = meta
			} else {
				e.File = meta
			}
		}
	}
	return e
}
