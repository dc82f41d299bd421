package models

import "time"

// Scan is the latest scan/consumption record of one product by one identity.
type Scan struct {
	Identity   Identity  `json:"identity" gorm:"primaryKey;type:varchar(128)"`
	ProductID  string    `json:"product_id" gorm:"primaryKey;type:varchar(128)"`
	Rating     int       `json:"rating" gorm:"not null"`
	Notes      string    `json:"notes" gorm:"type:text"`
	IsFavorite bool      `json:"is_favorite" gorm:"not null"`
	Timestamp  time.Time `json:"timestamp"`
}
