package model

import "time"

type MailUnsubscribe struct {
	Address   string `gorm:"primaryKey;size:254"`
	CreatedAt time.Time
}

func (MailUnsubscribe) TableName() string { return "mail_unsubscribes" }
