package model

import "time"

type ChatMember struct {
	RoomId    string `gorm:"primaryKey;size:64"`
	Id        string `gorm:"primaryKey;size:128"`
	Name      string `gorm:"size:50"`
	Token     string `gorm:"size:128"`
	Active    bool
	LastSeen  int64
	CreatedAt time.Time
}

func (ChatMember) TableName() string { return "chat_members" }
