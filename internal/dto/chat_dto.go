package dto

// Query-string DTOs for the HTTP surface. Identifier lengths are part of
// the protocol: room ids are 64 alphanumerics, member ids 128, auth
// hashes 64 hex characters.

type NewChatRequest struct {
	ChatName string `query:"chatName"`
}

type JoinChatRequest struct {
	ChatId   string `query:"chatId" validate:"required,len=64,alphanum"`
	UserId   string `query:"userId" validate:"required,len=128,alphanum"`
	UserName string `query:"userName" validate:"required"`
}

type SetActiveRequest struct {
	ChatId string `query:"chatId" validate:"required,len=64,alphanum"`
	UserId string `query:"userId" validate:"required,len=128,alphanum"`
	Hash   string `query:"hash" validate:"required,len=64,hexadecimal"`
	Time   int64  `query:"time" validate:"required"`
	Active *bool  `query:"active" validate:"required"`
}

type MailAddressRequest struct {
	Address string `query:"address" validate:"required,email"`
}
