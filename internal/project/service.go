package project

import (
	"context"
	"time"

	"github.com/SlpAus/peer-review-backend/internal/apperr"
	"github.com/SlpAus/peer-review-backend/internal/ledger"
	"github.com/SlpAus/peer-review-backend/internal/model"
	"github.com/SlpAus/peer-review-backend/internal/platform/logging"
	"github.com/SlpAus/peer-review-backend/internal/ranking"
	"github.com/sirupsen/logrus"
)

// SessionRefresher 在置顶扣减之后刷新用户的会话快照
type SessionRefresher interface {
	RefreshSession(ctx context.Context, userID string)
}

// FileInput 是创建项目时随附的文件
type FileInput struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

// CreateInput 是创建项目的请求体
type CreateInput struct {
	User        string      `json:"user" binding:"required"`
	Major       string      `json:"major"`
	Title       string      `json:"title" binding:"required"`
	Description string      `json:"description"`
	Files       []FileInput `json:"files"`
}

// Service 负责项目的创建、查询、删除与置顶
type Service struct {
	repo     *Repository
	ledger   *ledger.Ledger
	sessions SessionRefresher
}

// NewService 创建项目服务，sessions 可以为nil
func NewService(repo *Repository, l *ledger.Ledger, sessions SessionRefresher) *Service {
	return &Service{repo: repo, ledger: l, sessions: sessions}
}

// Create 创建项目及其全部文件
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Project, error) {
	if in.Title == "" {
		return nil, apperr.InvalidArgument("项目标题不能为空")
	}
	p := &model.Project{
		UserID:      in.User,
		Major:       in.Major,
		Title:       in.Title,
		Description: in.Description,
	}
	files := make([]model.File, 0, len(in.Files))
	for _, f := range in.Files {
		files = append(files, model.File{Title: f.Title, Content: f.Content})
	}
	if err := s.repo.CreateWithFiles(ctx, p, files); err != nil {
		return nil, err
	}

	logging.Log.WithFields(logrus.Fields{
		"project_id": p.ID,
		"user_id":    p.UserID,
		"files":      len(files),
	}).Info("项目创建成功")
	return p, nil
}

// Get 返回单个项目
func (s *Service) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.repo.FindByID(ctx, id)
}

// List 返回排序后的项目列表，major 为空时返回全部
func (s *Service) List(ctx context.Context, major string) ([]model.Project, error) {
	projects, err := s.repo.List(ctx, major)
	if err != nil {
		return nil, err
	}
	return ranking.OrderProjects(projects), nil
}

// ListByUser 返回某个用户排序后的项目
func (s *Service) ListByUser(ctx context.Context, userID string) ([]model.Project, error) {
	projects, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ranking.OrderProjects(projects), nil
}

// Delete 删除项目
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logging.Log.WithField("project_id", id).Info("项目已删除")
	return nil
}

// TopUp 消耗 userID 的一次置顶来置顶项目
func (s *Service) TopUp(ctx context.Context, userID, projectID string) (time.Time, error) {
	promotedAt, err := s.ledger.TopUpProject(ctx, userID, projectID)
	if err != nil {
		return time.Time{}, err
	}
	if s.sessions != nil {
		s.sessions.RefreshSession(ctx, userID)
	}
	return promotedAt, nil
}

// CancelTopUp 取消置顶，不退还置顶次数
func (s *Service) CancelTopUp(ctx context.Context, projectID string) error {
	return s.ledger.CancelTopUp(ctx, projectID)
}
