package model

// Department groups users for reporting purposes.
type Department struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Description string `json:"description,omitempty" gorm:"size:500"`
}
