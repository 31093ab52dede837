package lecture

import "time"

const Kind = "lecture"

// Note is a lecture transcript filed under a subject.
type Note struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    uint64    `gorm:"index;not null" json:"userId"`
	Subject   string    `gorm:"type:text;not null" json:"subject"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index;not null" json:"createdAt"`
}

func (Note) TableName() string { return "lecture_notes" }

func (n Note) OwnerID() uint64 { return n.UserID }
