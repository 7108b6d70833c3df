package entity

// ChatRoom is the durable identity of a room. MessageCount is the
// monotonically increasing append counter; it only ever grows.
type ChatRoom struct {
	Id           string
	Name         string
	MessageCount int64
}
