package models

// Group is a named category posts may belong to. Slug is the lookup key.
type Group struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:200;not null"`
	Slug        string `gorm:"size:50;uniqueIndex;not null"`
	Description string `gorm:"type:text;not null"`
}

func (g Group) String() string {
	return g.Title
}
