package model

import "time"

// Task is a unit of work scoped to an account.
type Task struct {
	ID            int64     `gorm:"primaryKey" json:"idTask"`
	AccountID     int64     `gorm:"index;not null" json:"idAccount"`
	CategoryID    *int64    `gorm:"index" json:"idCategory"`
	CreatorID     int64     `gorm:"not null" json:"idUserCreator"`
	ResponsibleID *int64    `gorm:"index" json:"idUserResponsible"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Description   *string   `gorm:"size:2000" json:"description"`
	DueDate       *Date     `gorm:"index" json:"dueDate"`
	DueTime       *string   `gorm:"size:8" json:"dueTime"`
	Priority      Priority  `gorm:"not null" json:"priority"`
	Completed     bool      `gorm:"not null;default:false" json:"completed"`
	Deleted       bool      `gorm:"not null;default:false" json:"deleted"`
	DateCreated   time.Time `gorm:"autoCreateTime" json:"dateCreated"`
	DateModified  time.Time `gorm:"autoUpdateTime" json:"dateModified"`
}

// DueAt returns the moment the task falls due in loc. A date without a time is due at the end of that day.
func (t Task) DueAt(loc *time.Location) (time.Time, bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	y, m, d := t.DueDate.Date()
	if t.DueTime != nil {
		if clock, err := time.Parse("15:04:05", *t.DueTime); err == nil {
			return time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), 0, loc), true
		}
	}
	return time.Date(y, m, d, 23, 59, 59, 0, loc), true
}

// TaskPriorityHistory records every priority a task has held.
type TaskPriorityHistory struct {
	ID          int64     `gorm:"primaryKey"`
	AccountID   int64     `gorm:"index;not null"`
	TaskID      int64     `gorm:"index;not null"`
	Priority    Priority  `gorm:"not null"`
	ChangedBy   int64     `gorm:"not null"`
	DateCreated time.Time `gorm:"autoCreateTime"`
}
