package implementation

import (
	"context"
	"errors"

	"linkchat-be/internal/entity"
	"linkchat-be/internal/mapper"
	"linkchat-be/internal/model"
	"linkchat-be/internal/repository/contract"

	"gorm.io/gorm"
)

var errRoomGone = errors.New("room record missing")

type ChatStoreImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatStore(db *gorm.DB) contract.ChatStore {
	return &ChatStoreImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

// AutoMigrate creates the chat tables. Called once at bootstrap when the
// Postgres backend is selected.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.ChatRoom{},
		&model.ChatMember{},
		&model.ChatMessage{},
		&model.MailUnsubscribe{},
	)
}

func (r *ChatStoreImpl) CreateRoom(ctx context.Context, room *entity.ChatRoom) error {
	m := r.mapper.RoomToModel(room)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ChatStoreImpl) LoadRoom(ctx context.Context, roomId string) (*entity.ChatRoom, []*entity.Member, error) {
	var m model.ChatRoom
	if err := r.db.WithContext(ctx).Where("id = ?", roomId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var memberModels []*model.ChatMember
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomId).
		Order("created_at ASC").
		Find(&memberModels).Error; err != nil {
		return nil, nil, err
	}

	members := make([]*entity.Member, len(memberModels))
	for i, mm := range memberModels {
		members[i] = r.mapper.MemberToEntity(mm)
	}
	return r.mapper.RoomToEntity(&m), members, nil
}

func (r *ChatStoreImpl) DeleteRoom(ctx context.Context, roomId string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomId).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", roomId).Delete(&model.ChatMember{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", roomId).Delete(&model.ChatRoom{}).Error
	})
}

func (r *ChatStoreImpl) AddMember(ctx context.Context, roomId string, member *entity.Member) error {
	m := r.mapper.MemberToModel(roomId, member)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ChatStoreImpl) UpdateMember(ctx context.Context, roomId string, member *entity.Member) error {
	m := r.mapper.MemberToModel(roomId, member)
	res := r.db.WithContext(ctx).
		Model(&model.ChatMember{}).
		Where("room_id = ? AND id = ?", roomId, member.Id).
		Updates(map[string]interface{}{
			"name":      m.Name,
			"active":    m.Active,
			"last_seen": m.LastSeen,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errRoomGone
	}
	return nil
}

// AppendMessage assigns the message the next sequence position and bumps
// the room counter, both inside one transaction.
func (r *ChatStoreImpl) AppendMessage(ctx context.Context, roomId string, message *entity.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room model.ChatRoom
		if err := tx.Where("id = ?", roomId).First(&room).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errRoomGone
			}
			return err
		}

		seq := room.MessageCount + 1
		m := r.mapper.MessageToModel(roomId, seq, message)
		if err := tx.Create(m).Error; err != nil {
			return err
		}

		return tx.Model(&model.ChatRoom{}).
			Where("id = ?", roomId).
			UpdateColumn("message_count", seq).Error
	})
}

func (r *ChatStoreImpl) PageMessages(ctx context.Context, roomId string, count int, cursor contract.MessageCursor) ([]*entity.Message, error) {
	if count <= 0 {
		return []*entity.Message{}, nil
	}

	query := r.db.WithContext(ctx).Where("room_id = ?", roomId)

	switch {
	case cursor.LastMessageId != "":
		var anchor model.ChatMessage
		err := r.db.WithContext(ctx).
			Where("room_id = ? AND id = ?", roomId, cursor.LastMessageId).
			First(&anchor).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []*entity.Message{}, nil
			}
			return nil, err
		}
		query = query.Where("seq < ?", anchor.Seq)
	case cursor.LoadedCount > 0:
		var room model.ChatRoom
		if err := r.db.WithContext(ctx).Where("id = ?", roomId).First(&room).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []*entity.Message{}, nil
			}
			return nil, err
		}
		query = query.Where("seq <= ?", room.MessageCount-int64(cursor.LoadedCount))
	}

	var page []*model.ChatMessage
	if err := query.Order("seq DESC").Limit(count).Find(&page).Error; err != nil {
		return nil, err
	}

	// Newest-first from the query; the protocol wants oldest-first.
	messages := make([]*entity.Message, len(page))
	for i, mm := range page {
		messages[len(page)-1-i] = r.mapper.MessageToEntity(mm)
	}
	return messages, nil
}

func (r *ChatStoreImpl) GetMessage(ctx context.Context, roomId, messageId string) (*entity.Message, error) {
	var m model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND id = ?", roomId, messageId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.MessageToEntity(&m), nil
}
