package note

import (
	"time"

	"github.com/lib/pq"
)

// Kind names this record type in logs and metrics.
const Kind = "note"

// Note is a titled transcript owned by one user.
type Note struct {
	ID        uint64         `gorm:"primaryKey" json:"id"`
	UserID    uint64         `gorm:"index;not null" json:"userId"`
	Title     string         `gorm:"type:text;not null" json:"title"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Tags      pq.StringArray `gorm:"type:text[];not null" json:"tags"`
	CreatedAt time.Time      `gorm:"index;not null" json:"createdAt"`
}

func (n Note) OwnerID() uint64 { return n.UserID }
