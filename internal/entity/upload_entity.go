package entity

// UploadSession tracks one in-flight chunked upload. Parts must arrive in
// strict order: a part is accepted only when its index equals
// NextPartIndex. The session dies on finalize, on error, or when the
// owning room is evicted.
type UploadSession struct {
	MessageId     string
	MemberId      string
	FileName      string
	FileType      string
	TotalParts    int
	NextPartIndex int
	Caption       string
}
