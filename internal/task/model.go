package task

import "time"

const Kind = "task"

type Task struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	UserID      uint64    `gorm:"index;not null" json:"userId"`
	Description string    `gorm:"type:text;not null" json:"description"`
	IsCompleted bool      `gorm:"not null;default:false" json:"isCompleted"`
	CreatedAt   time.Time `gorm:"index;not null" json:"createdAt"`
}

func (t Task) OwnerID() uint64 { return t.UserID }
