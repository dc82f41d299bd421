package models

import "time"

// Preferences holds the dietary flags and free-text tags of a profile.
type Preferences struct {
	Vegetarian        bool   `json:"vegetarian"`
	Vegan             bool   `json:"vegan"`
	GlutenFree        bool   `json:"gluten_free"`
	LactoseIntolerant bool   `json:"lactose_intolerant"`
	NutAllergy        bool   `json:"nut_allergy"`
	Diabetic          bool   `json:"diabetic"`
	DietaryTags       string `json:"dietary_preferences" gorm:"type:text" validate:"max=500"`
	Allergies         string `json:"allergies" gorm:"type:text" validate:"max=500"`
	HealthGoals       string `json:"health_goals" gorm:"type:text" validate:"max=500"`
	AgeRange          string `json:"age_range" gorm:"type:varchar(16)" validate:"max=16"`
}

// Profile is the single preference record owned by an identity.
type Profile struct {
	Identity           Identity    `json:"identity" gorm:"primaryKey;type:varchar(128)"`
	Preferences        Preferences `json:"preferences" gorm:"embedded"`
	CreatedAt          time.Time   `json:"created_at"`
	LastModified       time.Time   `json:"last_modified"`
	ScanCount          uint64      `json:"scan_count" gorm:"not null"`
	LastScannedProduct string      `json:"last_scanned_product" gorm:"type:varchar(128)"`
	Active             bool        `json:"active" gorm:"not null"`
}
