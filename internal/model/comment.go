package model

import (
	"time"

	"gorm.io/gorm"
)

// Comment 是用户对某个文件的评论和评分。
// UserName 是冗余的展示字段，只在写入评论时由服务端从用户记录刷新。
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FileID    string    `gorm:"index;not null" json:"file"`
	UserID    string    `gorm:"index;not null" json:"user"`
	UserName  string    `json:"userName"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	LikedNum  int       `gorm:"not null;default:0" json:"likedNum"`
	CreatedAt time.Time `json:"createdTime"`

	// HasLiked 仅在按用户查询时填充
	HasLiked *bool `gorm:"-" json:"hasLiked,omitempty"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	return assignID(&c.ID)
}

// Like 是评论与用户之间的连接记录。
// 联合唯一索引保证同一用户对同一评论至多一条点赞。
type Like struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CommentID string    `gorm:"not null;uniqueIndex:idx_like_comment_user" json:"comment"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_like_comment_user" json:"user"`
	CreatedAt time.Time `json:"createdTime"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	return assignID(&l.ID)
}

// All 返回需要迁移的全部模型
func All() []any {
	return []any{&User{}, &Project{}, &File{}, &Comment{}, &Like{}}
}
