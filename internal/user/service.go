package user

import (
	"context"
	"strings"

	"github.com/SlpAus/peer-review-backend/internal/apperr"
	"github.com/SlpAus/peer-review-backend/internal/ledger"
	"github.com/SlpAus/peer-review-backend/internal/model"
	"github.com/SlpAus/peer-review-backend/internal/platform/logging"
	"github.com/SlpAus/peer-review-backend/internal/ranking"
	"github.com/SlpAus/peer-review-backend/internal/session"
	"github.com/sirupsen/logrus"
)

// InitialTopNum 是新用户注册时赠送的置顶次数
const InitialTopNum = 2

// RegisterInput 是注册表单
type RegisterInput struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Major    string `json:"major"`
}

// Service 组合了用户仓库、会话缓存与积分账本
type Service struct {
	repo     *Repository
	sessions *session.Cache
	ledger   *ledger.Ledger
}

// NewService 创建用户服务
func NewService(repo *Repository, sessions *session.Cache, l *ledger.Ledger) *Service {
	return &Service{repo: repo, sessions: sessions, ledger: l}
}

// Register 注册新用户并直接建立会话
func (s *Service) Register(ctx context.Context, in RegisterInput) (model.PublicView, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return model.PublicView{}, apperr.InvalidArgument("邮箱不能为空")
	}
	u := &model.User{
		Email:    email,
		Name:     in.Name,
		Password: in.Password,
		Major:    in.Major,
		TopNum:   InitialTopNum,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return model.PublicView{}, err
	}
	s.sessions.Admit(*u)

	logging.Log.WithFields(logrus.Fields{"user_id": u.ID, "major": u.Major}).Info("新用户注册成功")
	return u.View(), nil
}

// Get 返回用户的对外视图
func (s *Service) Get(ctx context.Context, id string) (model.PublicView, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return model.PublicView{}, err
	}
	return u.View(), nil
}

// List 返回所有用户的对外视图
func (s *Service) List(ctx context.Context) ([]model.PublicView, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return model.Views(users), nil
}

// Delete 删除用户并清除其会话
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.sessions.Invalidate(deleted.Email)
	logging.Log.WithField("user_id", id).Info("用户已删除")
	return nil
}

// Top10 返回积分排行榜
func (s *Service) Top10(ctx context.Context) ([]model.PublicView, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return model.Views(ranking.Leaderboard(users)), nil
}

// Login 通过会话缓存登录
func (s *Service) Login(ctx context.Context, email, password string) (model.PublicView, error) {
	return s.sessions.Login(ctx, strings.TrimSpace(email), password)
}

// Logout 结束会话，总是幂等
func (s *Service) Logout(ctx context.Context, id string) error {
	return s.sessions.Logout(ctx, id)
}

// ExchangeTopUps 用积分兑换置顶次数，成功后刷新会话中的快照
func (s *Service) ExchangeTopUps(ctx context.Context, userID string, n int) error {
	if err := s.ledger.ExchangePoints(ctx, userID, n); err != nil {
		return err
	}
	s.RefreshSession(ctx, userID)
	return nil
}

// RefreshSession 让缓存的会话快照跟上存储中的最新余额，失败只记录日志
func (s *Service) RefreshSession(ctx context.Context, userID string) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		logging.Log.WithField("user_id", userID).WithError(err).Warn("刷新会话快照失败")
		return
	}
	s.sessions.Refresh(*u)
}
