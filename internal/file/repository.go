// Package file 管理项目下的待评审文件。
package file

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/peer-review-backend/internal/apperr"
	"github.com/SlpAus/peer-review-backend/internal/model"
	"gorm.io/gorm"
)

// Repository 是文件表的数据访问层
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建文件仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create 在已存在的项目下创建文件，作者取自项目
func (r *Repository) Create(ctx context.Context, f *model.File) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Project
		if err := tx.Select("id", "user_id").Where("id = ?", f.ProjectID).Take(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("项目 %s: %w", f.ProjectID, apperr.ErrNotFound)
			}
			return fmt.Errorf("查询项目失败: %w", err)
		}
		f.UserID = p.UserID
		f.Rating = 0
		f.RatingNum = 0
		if err := tx.Create(f).Error; err != nil {
			return fmt.Errorf("创建文件失败: %w", err)
		}
		return nil
	})
}

// FindByID 按主键查找文件
func (r *Repository) FindByID(ctx context.Context, id string) (*model.File, error) {
	var f model.File
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("文件 %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("查询文件失败: %w", err)
	}
	return &f, nil
}

// ListByProject 按创建顺序返回项目下的文件
func (r *Repository) ListByProject(ctx context.Context, projectID string) ([]model.File, error) {
	files := []model.File{}
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("查询项目文件失败: %w", err)
	}
	return files, nil
}
