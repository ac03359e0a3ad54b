package comment

import (
	"context"
	"fmt"

	"github.com/SlpAus/peer-review-backend/internal/apperr"
	"github.com/SlpAus/peer-review-backend/internal/model"
	"github.com/SlpAus/peer-review-backend/internal/platform/logging"
	"github.com/SlpAus/peer-review-backend/internal/ranking"
	"github.com/sirupsen/logrus"
)

// 评论评分的取值范围
const (
	MinRating = 0
	MaxRating = 5
)

// CreateInput 是发表评论的请求体，用户名由服务端填充
type CreateInput struct {
	File    string `json:"file" binding:"required"`
	User    string `json:"user" binding:"required"`
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

// Service 负责评论与点赞的业务逻辑
type Service struct {
	repo *Repository
}

// NewService 创建评论服务
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create 发表一条评论
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Comment, error) {
	if in.Rating < MinRating || in.Rating > MaxRating {
		return nil, apperr.InvalidArgument(fmt.Sprintf("评分必须在 %d 到 %d 之间", MinRating, MaxRating))
	}
	c := &model.Comment{
		FileID:  in.File,
		UserID:  in.User,
		Content: in.Content,
		Rating:  in.Rating,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	logging.Log.WithFields(logrus.Fields{
		"comment_id": c.ID,
		"file_id":    c.FileID,
		"user_id":    c.UserID,
	}).Debug("评论发表成功")
	return c, nil
}

// ListByFile 返回按点赞数排序的评论。
// viewerID 非空时为每条评论标注该用户是否点赞过。
func (s *Service) ListByFile(ctx context.Context, fileID, viewerID string) ([]model.Comment, error) {
	comments, err := s.repo.ListByFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	comments = ranking.OrderComments(comments)
	if viewerID == "" {
		return comments, nil
	}

	ids := make([]string, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
	}
	liked, err := s.repo.LikedSet(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		_, ok := liked[comments[i].ID]
		comments[i].HasLiked = &ok
	}
	return comments, nil
}

// Like 点赞一条评论
func (s *Service) Like(ctx context.Context, userID, commentID string) error {
	return s.repo.Like(ctx, userID, commentID)
}
