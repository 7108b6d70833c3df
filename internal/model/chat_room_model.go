package model

import "time"

type ChatRoom struct {
	Id           string `gorm:"primaryKey;size:64"`
	Name         string `gorm:"size:50"`
	MessageCount int64
	CreatedAt    time.Time
}

func (ChatRoom) TableName() string { return "chat_rooms" }
