package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 定义了用户在数据库中的持久化模型。
// Points 与 TopNum 由积分账本独占维护，二者在任何时刻都不得为负。
type User struct {
	// ID 是用户的不透明主键 (UUID v7)
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	// Email 是用户的唯一登录键
	Email string `gorm:"uniqueIndex;not null" json:"email"`

	// Name 是用户的展示名
	Name string `json:"name"`

	// Major 是用户的专业/分类
	Major string `gorm:"index" json:"major"`

	// Password 是登录凭据，永远不会被序列化到响应中
	Password string `gorm:"not null" json:"-"`

	// Points 是用户累计的积分，可按固定汇率兑换置顶次数
	Points int `gorm:"not null;default:0;check:points >= 0" json:"points"`

	// TopNum 是用户当前可用的置顶次数
	TopNum int `gorm:"not null;default:0;check:top_num >= 0" json:"topNum"`

	// LikedNum 是用户的评论累计获得的点赞数
	LikedNum int `gorm:"not null;default:0" json:"likedNum"`

	// CommentNum 是用户发表的评论总数
	CommentNum int `gorm:"not null;default:0" json:"commentNum"`

	CreatedAt time.Time `json:"createdTime"`
}

// BeforeCreate 在插入前为记录分配UUID v7主键
func (u *User) BeforeCreate(tx *gorm.DB) error {
	return assignID(&u.ID)
}

// PublicView 是用户记录去除凭据后的对外视图
type PublicView struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Major      string    `json:"major"`
	Points     int       `json:"points"`
	TopNum     int       `json:"topNum"`
	LikedNum   int       `json:"likedNum"`
	CommentNum int       `json:"commentNum"`
	CreatedAt  time.Time `json:"createdTime"`
}

// View 返回用户的对外视图
func (u User) View() PublicView {
	return PublicView{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Major:      u.Major,
		Points:     u.Points,
		TopNum:     u.TopNum,
		LikedNum:   u.LikedNum,
		CommentNum: u.CommentNum,
		CreatedAt:  u.CreatedAt,
	}
}

// Views 批量转换为对外视图
func Views(users []User) []PublicView {
	views := make([]PublicView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return views
}

func assignID(id *string) error {
	if *id != "" {
		return nil
	}
	newUUID, err := uuid.NewV7()
	if err != nil {
		return err
	}
	*id = newUUID.String()
	return nil
}
