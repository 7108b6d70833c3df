package chat

import (
	"encoding/base64"
	"strings"
	"time"

	"linkchat-be/internal/entity"
	"linkchat-be/internal/pkg/randstring"
)

const (
	// Uploads travel as base64 parts of at most MaxPartSize decoded bytes,
	// capped at MaxPartCount parts per file (32 MiB total).
	MaxPartSize  = 8192
	MaxPartCount = 4096

	MaxUploadSize = int64(MaxPartSize) * int64(MaxPartCount)
)

// acceptUploadLocked validates a type-5 upload announcement and either
// opens an upload slot, replying with the reserved message id, or rejects
// with a verdict carrying no id.
func (s *Session) acceptUploadLocked(t Transport, userId string, f *UploadRequestFrame) {
	m := s.memberLocked(userId)
	if m == nil || !m.Active || !VerifyHash(m.Token, f.Hash, f.Time, time.Now()) {
		t.Send(encodePush(uploadVerdictPush{Type: pushUploadVerdict, Accepted: false}))
		return
	}
	if strings.TrimSpace(f.FileName) == "" || f.FileType == "" {
		t.Send(encodePush(uploadVerdictPush{Type: pushUploadVerdict, Accepted: false}))
		return
	}
	if f.FileSize <= 0 || f.FileSize > MaxUploadSize {
		t.Send(encodePush(uploadVerdictPush{Type: pushUploadVerdict, Accepted: false}))
		return
	}

	caption := f.MessageText
	if len(caption) > MaxMessageLength {
		caption = caption[:MaxMessageLength]
	}

	up := &entity.UploadSession{
		MessageId:  randstring.NewMessageID(),
		MemberId:   userId,
		FileName:   f.FileName,
		FileType:   f.FileType,
		TotalParts: int((f.FileSize + MaxPartSize - 1) / MaxPartSize),
		Caption:    caption,
	}
	s.uploads[up.MessageId] = up

	s.logger.Info("ChatSession", "Upload accepted", map[string]interface{}{
		"room_id":     s.id,
		"message_id":  up.MessageId,
		"file_size":   f.FileSize,
		"total_parts": up.TotalParts,
	})
	t.Send(encodePush(uploadVerdictPush{Type: pushUploadVerdict, Accepted: true, MessageId: up.MessageId}))
}

// submitPartLocked handles one type-6 part. Parts must arrive strictly in
// order; an out-of-order index writes nothing and the ack just restates
// the expected index. A storage failure aborts the whole upload.
func (s *Session) submitPartLocked(t Transport, userId string, f *UploadPartFrame) {
	up, ok := s.uploads[f.MessageId]
	if !ok || up.MemberId != userId {
		return
	}

	if f.PartIndex != up.NextPartIndex {
		t.Send(encodePush(uploadPartAckPush{
			Type:      pushUploadPartAck,
			MessageId: up.MessageId,
			NextPart:  up.NextPartIndex,
		}))
		return
	}

	part, err := base64.StdEncoding.DecodeString(f.Part)
	if err != nil || len(part) == 0 || len(part) > MaxPartSize {
		t.Send(encodePush(uploadPartAckPush{
			Type:      pushUploadPartAck,
			MessageId: up.MessageId,
			NextPart:  up.NextPartIndex,
		}))
		return
	}

	if err := s.files.AppendPart(s.id, up.MessageId, part); err != nil {
		s.abortUploadLocked(t, up, err)
		return
	}
	up.NextPartIndex++

	if up.NextPartIndex < up.TotalParts {
		t.Send(encodePush(uploadPartAckPush{
			Type:      pushUploadPartAck,
			MessageId: up.MessageId,
			NextPart:  up.NextPartIndex,
		}))
		return
	}
	s.finalizeUploadLocked(t, up)
}

func (s *Session) finalizeUploadLocked(t Transport, up *entity.UploadSession) {
	if err := s.files.Finalize(s.id, up.MessageId); err != nil {
		s.abortUploadLocked(t, up, err)
		return
	}

	meta := &entity.FileMeta{Name: up.FileName, Type: up.FileType}
	msg := &entity.Message{
		Id:     up.MessageId,
		UserId: up.MemberId,
		Time:   time.Now().UnixMilli(),
		Text:   up.Caption,
		Emails: ExtractEmails(up.Caption),
	}
	if strings.HasPrefix(up.FileType, "image/") {
		msg.Image = meta
	} else {
		msg.File = meta
	}

	if !s.appendAndBroadcastLocked(msg) {
		s.abortUploadLocked(t, up, nil)
		return
	}
	delete(s.uploads, up.MessageId)

	s.logger.Info("ChatSession", "Upload finalized", map[string]interface{}{"room_id": s.id, "message_id": up.MessageId})
	t.Send(encodePush(uploadPartAckPush{
		Type:      pushUploadPartAck,
		MessageId: up.MessageId,
		NextPart:  up.NextPartIndex,
		Done:      true,
	}))
}

func (s *Session) abortUploadLocked(t Transport, up *entity.UploadSession, cause error) {
	if cause != nil {
		s.logger.Error("ChatSession", "Upload aborted", map[string]interface{}{"room_id": s.id, "message_id": up.MessageId, "error": cause})
	}
	if err := s.files.Discard(s.id, up.MessageId); err != nil {
		s.logger.Error("ChatSession", "Failed to discard upload artifacts", map[string]interface{}{"room_id": s.id, "message_id": up.MessageId, "error": err})
	}
	delete(s.uploads, up.MessageId)
	t.Send(encodePush(uploadPartAckPush{
		Type:      pushUploadPartAck,
		MessageId: up.MessageId,
		NextPart:  up.NextPartIndex,
		Failed:    true,
	}))
}
