// Package comment 管理文件下的评论、评分与点赞。
package comment

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/peer-review-backend/internal/apperr"
	"github.com/SlpAus/peer-review-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 是评论与点赞表的数据访问层，所有计数器都在写入事务中同步维护
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建评论仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create 写入一条评论，并在同一事务中:
// 从用户记录刷新冗余的用户名、增加用户的评论数、更新文件的评分均值
func (r *Repository) Create(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author model.User
		if err := tx.Select("id", "name").Where("id = ?", c.UserID).Take(&author).Error; err != nil {
			return notFoundOr(err, "用户", c.UserID)
		}

		// 评分均值在数据库中基于旧值原地计算
		result := tx.Model(&model.File{}).
			Where("id = ?", c.FileID).
			Updates(map[string]any{
				"rating":     gorm.Expr("(rating * rating_num + ?) / (rating_num + 1)", float64(c.Rating)),
				"rating_num": gorm.Expr("rating_num + 1"),
			})
		if result.Error != nil {
			return fmt.Errorf("更新文件评分失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("文件 %s: %w", c.FileID, apperr.ErrNotFound)
		}

		c.UserName = author.Name
		c.LikedNum = 0
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("创建评论失败: %w", err)
		}

		if err := tx.Model(&model.User{}).
			Where("id = ?", c.UserID).
			Update("comment_num", gorm.Expr("comment_num + 1")).Error; err != nil {
			return fmt.Errorf("更新用户评论数失败: %w", err)
		}
		return nil
	})
}

// ListByFile 按创建顺序返回文件下的评论
func (r *Repository) ListByFile(ctx context.Context, fileID string) ([]model.Comment, error) {
	comments := []model.Comment{}
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("查询文件评论失败: %w", err)
	}
	return comments, nil
}

// LikedSet 返回 commentIDs 中被 userID 点赞过的评论
func (r *Repository) LikedSet(ctx context.Context, userID string, commentIDs []string) (map[string]struct{}, error) {
	liked := make(map[string]struct{})
	if len(commentIDs) == 0 {
		return liked, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Like{}).
		Where("user_id = ? AND comment_id IN ?", userID, commentIDs).
		Pluck("comment_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("查询点赞记录失败: %w", err)
	}
	for _, id := range ids {
		liked[id] = struct{}{}
	}
	return liked, nil
}

// Like 记录一次点赞并增加评论与评论作者的点赞数。
// 同一用户重复点赞同一评论返回 apperr.ErrAlreadyExists，计数器保持不变。
func (r *Repository) Like(ctx context.Context, userID, commentID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var liker int64
		if err := tx.Model(&model.User{}).Where("id = ?", userID).Count(&liker).Error; err != nil {
			return fmt.Errorf("查询点赞用户失败: %w", err)
		}
		if liker == 0 {
			return fmt.Errorf("用户 %s: %w", userID, apperr.ErrNotFound)
		}

		var c model.Comment
		if err := tx.Select("id", "user_id").Where("id = ?", commentID).Take(&c).Error; err != nil {
			return notFoundOr(err, "评论", commentID)
		}

		// 冲突时不插入，受影响行数为0即为重复点赞
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&model.Like{CommentID: commentID, UserID: userID})
		if result.Error != nil {
			return fmt.Errorf("写入点赞记录失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.ErrAlreadyExists
		}

		if err := tx.Model(&model.Comment{}).
			Where("id = ?", commentID).
			Update("liked_num", gorm.Expr("liked_num + 1")).Error; err != nil {
			return fmt.Errorf("更新评论点赞数失败: %w", err)
		}
		if err := tx.Model(&model.User{}).
			Where("id = ?", c.UserID).
			Update("liked_num", gorm.Expr("liked_num + 1")).Error; err != nil {
			return fmt.Errorf("更新作者点赞数失败: %w", err)
		}
		return nil
	})
}

func notFoundOr(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, apperr.ErrNotFound)
	}
	return fmt.Errorf("查询%s失败: %w", kind, err)
}
