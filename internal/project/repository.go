package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/peer-review-backend/internal/apperr"
	"github.com/SlpAus/peer-review-backend/internal/model"
	"gorm.io/gorm"
)

// Repository 是项目表的数据访问层
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建项目仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithFiles 在同一事务中创建项目及其文件。
// 文件继承项目的ID与作者，评分从0开始。
func (r *Repository) CreateWithFiles(ctx context.Context, p *model.Project, files []model.File) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner int64
		if err := tx.Model(&model.User{}).Where("id = ?", p.UserID).Count(&owner).Error; err != nil {
			return fmt.Errorf("查询项目作者失败: %w", err)
		}
		if owner == 0 {
			return fmt.Errorf("用户 %s: %w", p.UserID, apperr.ErrNotFound)
		}

		p.IsOnTop = false
		p.IsOnTopTime = nil
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("创建项目失败: %w", err)
		}

		p.FileIDs = make([]string, 0, len(files))
		for i := range files {
			f := &files[i]
			f.ProjectID = p.ID
			f.UserID = p.UserID
			f.Rating = 0
			f.RatingNum = 0
			if err := tx.Create(f).Error; err != nil {
				return fmt.Errorf("创建项目文件失败: %w", err)
			}
			p.FileIDs = append(p.FileIDs, f.ID)
		}
		return nil
	})
}

// FindByID 按主键查找项目并附带文件ID列表
func (r *Repository) FindByID(ctx context.Context, id string) (*model.Project, error) {
	db := r.db.WithContext(ctx)
	var p model.Project
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("项目 %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}
	projects := []model.Project{p}
	if err := attachFileIDs(db, projects); err != nil {
		return nil, err
	}
	return &projects[0], nil
}

// List 返回项目列表，major 为空时不过滤
func (r *Repository) List(ctx context.Context, major string) ([]model.Project, error) {
	db := r.db.WithContext(ctx)
	query := db.Model(&model.Project{})
	if major != "" {
		query = query.Where("major = ?", major)
	}
	return r.find(db, query)
}

// ListByUser 返回某个用户的全部项目
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]model.Project, error) {
	db := r.db.WithContext(ctx)
	return r.find(db, db.Model(&model.Project{}).Where("user_id = ?", userID))
}

func (r *Repository) find(db, query *gorm.DB) ([]model.Project, error) {
	var projects []model.Project
	if err := query.Order("created_at ASC, id ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("查询项目列表失败: %w", err)
	}
	if err := attachFileIDs(db, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Delete 删除项目，连同它的文件、文件下的评论和这些评论的点赞
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&model.Project{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("删除项目失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("项目 %s: %w", id, apperr.ErrNotFound)
		}

		fileIDs := tx.Model(&model.File{}).Select("id").Where("project_id = ?", id)
		commentIDs := tx.Model(&model.Comment{}).Select("id").Where("file_id IN (?)", fileIDs)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&model.Like{}).Error; err != nil {
			return fmt.Errorf("删除点赞记录失败: %w", err)
		}
		if err := tx.Where("file_id IN (?)", fileIDs).Delete(&model.Comment{}).Error; err != nil {
			return fmt.Errorf("删除评论失败: %w", err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&model.File{}).Error; err != nil {
			return fmt.Errorf("删除项目文件失败: %w", err)
		}
		return nil
	})
}

// attachFileIDs 用一次查询为所有项目填充文件ID，按文件创建顺序排列
func attachFileIDs(db *gorm.DB, projects []model.Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]string, len(projects))
	index := make(map[string]int, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
		index[projects[i].ID] = i
		projects[i].FileIDs = []string{}
	}

	var files []model.File
	err := db.Select("id", "project_id").
		Where("project_id IN ?", ids).
		Order("created_at ASC, id ASC").
		Find(&files).Error
	if err != nil {
		return fmt.Errorf("查询项目文件失败: %w", err)
	}
	for _, f := range files {
		i := index[f.ProjectID]
		projects[i].FileIDs = append(projects[i].FileIDs, f.ID)
	}
	return nil
}
