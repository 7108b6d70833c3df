package entity

// Member is one pseudo-identity inside a room. The id is generated by the
// client, the secret token by the server on join. The token never leaves
// the server again after the join response.
type Member struct {
	Id       string
	Name     string
	Token    string
	Active   bool
	LastSeen int64 // unix milliseconds
}
