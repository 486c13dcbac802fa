package models

// Tag groups questions for browsing.
type Tag struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"_id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
}

// TagData is a tag name together with the number of questions using it.
type TagData struct {
	Name  string `json:"name"`
	Count int    `json:"qcnt"`
}
