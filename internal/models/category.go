package models

// Category is static reference data for complaint classification.
type Category struct {
	ID    string `gorm:"primaryKey" json:"id" yaml:"id"`
	Label string `gorm:"not null;uniqueIndex" json:"label" yaml:"label"`
	Icon  string `json:"icon" yaml:"icon"`
	Color string `json:"color" yaml:"color"`
}
