package model

import (
	"time"

	"gorm.io/datatypes"
)

type ChatMessage struct {
	RoomId string `gorm:"primaryKey;size:64;index:idx_chat_messages_room_seq,priority:1"`
	Id     string `gorm:"primaryKey;size:32"`
	// Seq is the 1-based append position inside the room; backward
	// pagination walks it.
	Seq        int64  `gorm:"index:idx_chat_messages_room_seq,priority:2"`
	UserId     string `gorm:"size:128"`
	Time       int64
	Text       string
	Emails     datatypes.JSON
	Attachment datatypes.JSON
	System     string
	CreatedAt  time.Time
}

func (ChatMessage) TableName() string { return "chat_messages" }
