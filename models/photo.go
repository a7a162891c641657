package models

type Photo struct {
	ID        uint64 `gorm:"primaryKey" json:"id"`
	MemoryID  uint64 `gorm:"not null;index" json:"memory_id"`
	Memory    Memory `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt int64  `json:"created_at"`
	Path      string `gorm:"type:varchar(300)" json:"-"`
	ThumbPath string `gorm:"type:varchar(300)" json:"-"` // empty if thumbnail generation failed
}

// PhotoUpload is a staged pair of blob locators (original + optional thumb)
// that has been written to the blob store but not yet attached to a row.
type PhotoUpload struct {
	Path      string
	ThumbPath string
}

func (p PhotoUpload) paths() []string {
	return []string{p.Path, p.ThumbPath}
}

func uploadPaths(uploads []PhotoUpload) []string {
	paths := []string{}
	for _, u := range uploads {
		paths = append(paths, u.paths()...)
	}
	return paths
}
