// Package ledger 实现了积分与置顶的经济系统。
// 每个操作都是一个数据库事务，余额检查与扣减合并为一条条件更新语句(compare-and-swap)，
// 因此并发请求不会基于过期的读取而透支，用户的 points 与 topNum 永远不会为负。
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/SlpAus/peer-review-backend/internal/apperr"
	"github.com/SlpAus/peer-review-backend/internal/model"
	"gorm.io/gorm"
)

// ExchangeRate 是兑换一次置顶所需的积分
const ExchangeRate = 10

// maxExchange 保证 cost 的计算不会溢出
const maxExchange = math.MaxInt / ExchangeRate

// Ledger 是积分账本，独占维护用户的 points/topNum 与项目的置顶状态
type Ledger struct {
	db  *gorm.DB
	now func() time.Time
}

// New 创建账本。now 为 nil 时使用 time.Now。
func New(db *gorm.DB, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{db: db, now: now}
}

// ExchangePoints 用 requested*ExchangeRate 积分兑换 requested 次置顶
func (l *Ledger) ExchangePoints(ctx context.Context, userID string, requested int) error {
	if requested <= 0 {
		return apperr.InvalidArgument("兑换数量必须为正整数")
	}
	if requested > maxExchange {
		return apperr.InvalidArgument("兑换数量过大")
	}
	cost := requested * ExchangeRate

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.User{}).
			Where("id = ? AND points >= ?", userID, cost).
			Updates(map[string]any{
				"points":  gorm.Expr("points - ?", cost),
				"top_num": gorm.Expr("top_num + ?", requested),
			})
		if result.Error != nil {
			return fmt.Errorf("兑换置顶次数失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return explainMiss(tx, userID, apperr.ErrInsufficientPoints)
		}
		return nil
	})
}

// TopUpProject 消耗用户的一次置顶，把项目标记为置顶。
// 扣减与标记在同一事务内完成，项目不存在时扣减会被回滚。
func (l *Ledger) TopUpProject(ctx context.Context, userID, projectID string) (time.Time, error) {
	promotedAt := l.now()

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.User{}).
			Where("id = ? AND top_num >= ?", userID, 1).
			Update("top_num", gorm.Expr("top_num - ?", 1))
		if result.Error != nil {
			return fmt.Errorf("扣减置顶次数失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return explainMiss(tx, userID, apperr.ErrInsufficientTopUps)
		}

		result = tx.Model(&model.Project{}).
			Where("id = ?", projectID).
			Updates(map[string]any{
				"is_on_top":      true,
				"is_on_top_time": promotedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("置顶项目失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("项目 %s: %w", projectID, apperr.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return promotedAt, nil
}

// CancelTopUp 取消项目的置顶状态。
// 操作是幂等的: 项目不存在或本就未置顶都视为成功。已消耗的置顶次数不退还。
func (l *Ledger) CancelTopUp(ctx context.Context, projectID string) error {
	err := l.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("id = ?", projectID).
		Updates(map[string]any{
			"is_on_top":      false,
			"is_on_top_time": nil,
		}).Error
	if err != nil {
		return fmt.Errorf("取消置顶失败: %w", err)
	}
	return nil
}

// explainMiss 区分条件更新未命中的两种原因: 用户不存在，或余额不足
func explainMiss(tx *gorm.DB, userID string, insufficient error) error {
	var u model.User
	err := tx.Select("id").Where("id = ?", userID).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("用户 %s: %w", userID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}
	return insufficient
}
