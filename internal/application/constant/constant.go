package constant

// Attribute keys shared across slog call sites.
const (
	Error    = "error"
	UserID   = "user_id"
	UserName = "username"
	RoomID   = "room_id"
	RoomCode = "room_code"
)
