package model

import (
	"time"

	"gorm.io/gorm"
)

// Project 是用户提交的待评审项目。
// 不变式: IsOnTopTime 非空当且仅当 IsOnTop 为 true。
type Project struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string     `gorm:"index;not null" json:"user"`
	Major       string     `gorm:"index" json:"major"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsOnTop     bool       `gorm:"not null;default:false" json:"isOnTop"`
	IsOnTopTime *time.Time `json:"isOnTopTime"`
	CreatedAt   time.Time  `json:"createdTime"`

	// FileIDs 是派生字段，不落库
	FileIDs []string `gorm:"-" json:"files"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	return assignID(&p.ID)
}

// File 是项目下的一个待评审文件，Rating 是其收到的评分的均值。
type File struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProjectID string    `gorm:"index;not null" json:"project"`
	UserID    string    `gorm:"index;not null" json:"user"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Rating    float64   `gorm:"not null;default:0" json:"rating"`
	RatingNum int       `gorm:"not null;default:0" json:"ratingNum"`
	CreatedAt time.Time `json:"createdTime"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	return assignID(&f.ID)
}
