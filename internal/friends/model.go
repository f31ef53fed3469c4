package friends

// Status enumerates the lifecycle of a friend request.
type Status string

const (
	// StatusPending marks a request awaiting a decision by its recipient.
	StatusPending Status = "pending"
	// StatusAccepted marks a request the recipient accepted.
	StatusAccepted Status = "accepted"
	// StatusDeclined marks a request the recipient declined.
	StatusDeclined Status = "declined"
)

// Resolution reports whether a status is a valid terminal decision.
func (s Status) Resolution() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// FriendRequest models a directed relationship proposal from one code to
// another. Only the holder of ToCode may resolve it.
type FriendRequest struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	FromCode  string `gorm:"column:from_code;size:190;not null;index:idx_friend_requests_from_code"`
	FromName  string `gorm:"column:from_name;size:320;not null"`
	ToCode    string `gorm:"column:to_code;size:190;not null;index:idx_friend_requests_to_code"`
	Status    Status `gorm:"column:status;size:20;not null;default:'pending'"`
	CreatedAt int64  `gorm:"column:created_at;not null"` // milliseconds since epoch
}

// TableName provides the explicit table binding for GORM.
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// CreateRequest describes the input supplied by a client when proposing a
// relationship. All three fields are required.
type CreateRequest struct {
	FromCode string
	FromName string
	ToCode   string
}
