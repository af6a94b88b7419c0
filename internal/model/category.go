package model

import "time"

// Category groups tasks by area (work, health, study, etc.).
type Category struct {
	ID          int64     `gorm:"primaryKey" json:"idCategory"`
	AccountID   int64     `gorm:"index:idx_account_category_name,unique;not null" json:"idAccount"`
	Name        string    `gorm:"size:100;index:idx_account_category_name,unique;not null" json:"name"`
	DateCreated time.Time `gorm:"autoCreateTime" json:"dateCreated"`
}
