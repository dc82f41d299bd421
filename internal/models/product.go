package models

import "time"

// Product is a versioned catalog entry keyed by its product identifier (barcode).
type Product struct {
	ID           string    `json:"product_id" gorm:"primaryKey;type:varchar(128)"`
	Name         string    `json:"name" gorm:"type:varchar(100)"`
	Ingredients  string    `json:"ingredients" gorm:"type:text"`
	Region       string    `json:"region" gorm:"type:varchar(32)"`
	Manufacturer string    `json:"manufacturer" gorm:"type:varchar(100)"`
	Category     string    `json:"category" gorm:"type:varchar(64)"`
	NutriScore   string    `json:"nutri_score" gorm:"type:varchar(4)"`
	Allergens    string    `json:"allergens" gorm:"type:text"`
	Version      uint64    `json:"version" gorm:"not null"`
	LastModified time.Time `json:"last_modified"`
	Active       bool      `json:"active" gorm:"not null"`
}

// Authorization records whether a non-owner identity may write products.
type Authorization struct {
	Identity   Identity  `json:"identity" gorm:"primaryKey;type:varchar(128)"`
	Authorized bool      `json:"authorized" gorm:"not null"`
	ChangedAt  time.Time `json:"changed_at"`
}
