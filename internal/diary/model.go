package diary

import "time"

const Kind = "diary"

// Entry is a dated diary transcript.
type Entry struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    uint64    `gorm:"index;not null" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Date      time.Time `gorm:"not null" json:"date"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (Entry) TableName() string { return "diary_entries" }

func (e Entry) OwnerID() uint64 { return e.UserID }
