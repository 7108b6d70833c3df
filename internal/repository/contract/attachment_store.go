package contract

import "io"

// AttachmentStore owns the attachment bytes, keyed by room id + message
// id. Bytes accumulate in a temporary artifact and become readable only
// after Finalize promotes them atomically. Discard removes both the
// temporary and the final artifact; it is the reclamation path for failed
// uploads and room eviction.
type AttachmentStore interface {
	AppendPart(roomId, messageId string, part []byte) error
	Finalize(roomId, messageId string) error
	Discard(roomId, messageId string) error
	Open(roomId, messageId string) (io.ReadCloser, error)
}
