package doodles

// Doodle models a single stored image payload addressed from one code to
// another. Rows are immutable once created; the system never deletes them.
type Doodle struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	ToCode    string `gorm:"column:to_code;size:190;not null;index:idx_doodles_to_code"`
	FromCode  string `gorm:"column:from_code;size:190;not null;default:''"`
	FromName  string `gorm:"column:from_name;size:320;not null;default:''"`
	DataURL   string `gorm:"column:data_url;type:text;not null"`
	CreatedAt int64  `gorm:"column:created_at;not null"` // milliseconds since epoch
}

// TableName provides the explicit table binding for GORM.
func (Doodle) TableName() string {
	return "doodles"
}

// CreateRequest describes the input supplied by a client when sending a doodle.
// FromCode and FromName are optional and default to empty.
type CreateRequest struct {
	ToCode   string
	FromCode string
	FromName string
	DataURL  string
}
