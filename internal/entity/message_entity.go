package entity

// FileMeta describes an attachment without its bytes. The bytes live in
// the attachment store under the message id.
type FileMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Message carries exactly one payload variant: text (optionally with
// extracted e-mail addresses), an image, a generic file, or a system
// notice. Messages are immutable once appended. The json tags double as
// the wire shape pushed to connected clients.
type Message struct {
	Id     string    `json:"id"`
	UserId string    `json:"userId"` // empty for system messages
	Time   int64     `json:"time"`   // unix milliseconds
	Text   string    `json:"text,omitempty"`
	Emails []string  `json:"emails,omitempty"`
	Image  *FileMeta `json:"image,omitempty"`
	File   *FileMeta `json:"file,omitempty"`
	System string    `json:"systemMessage,omitempty"`
}

// IsSystem reports whether this is a system notice.
func (m *Message) IsSystem() bool { return m.System != "" }

// HasAttachment reports whether the message references stored bytes.
func (m *Message) HasAttachment() bool { return m.Image != nil || m.File != nil }
