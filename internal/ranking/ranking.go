// Package ranking 实现了项目、评论和用户排行榜的确定性排序。
// 所有函数都是纯函数: 返回新的切片，不修改输入。
package ranking

import (
	"cmp"
	"slices"

	"github.com/SlpAus/peer-review-backend/internal/model"
)

// LeaderboardSize 是积分排行榜返回的最大人数
const LeaderboardSize = 10

// OrderProjects 返回排序后的项目列表:
// 置顶项目在前，按置顶时间从新到旧；其余项目按创建时间从新到旧。
func OrderProjects(projects []model.Project) []model.Project {
	ordered := slices.Clone(projects)
	slices.SortStableFunc(ordered, compareProjects)
	return ordered
}

func compareProjects(a, b model.Project) int {
	if a.IsOnTop != b.IsOnTop {
		if a.IsOnTop {
			return -1
		}
		return 1
	}
	if a.IsOnTop {
		// 置顶但缺少时间的脏数据排在置顶组末尾
		switch {
		case a.IsOnTopTime == nil && b.IsOnTopTime == nil:
			return 0
		case a.IsOnTopTime == nil:
			return 1
		case b.IsOnTopTime == nil:
			return -1
		}
		return b.IsOnTopTime.Compare(*a.IsOnTopTime)
	}
	return b.CreatedAt.Compare(a.CreatedAt)
}

// OrderComments 按点赞数从高到低排序评论，点赞数相同时保持原有顺序
func OrderComments(comments []model.Comment) []model.Comment {
	ordered := slices.Clone(comments)
	slices.SortStableFunc(ordered, func(a, b model.Comment) int {
		return cmp.Compare(b.LikedNum, a.LikedNum)
	})
	return ordered
}

// TopUsers 返回积分最高的至多n个用户，积分相同时保持输入顺序
func TopUsers(users []model.User, n int) []model.User {
	if n <= 0 {
		return []model.User{}
	}
	ordered := slices.Clone(users)
	slices.SortStableFunc(ordered, func(a, b model.User) int {
		return cmp.Compare(b.Points, a.Points)
	})
	if len(ordered) > n {
		ordered = ordered[:n]
	}
	if ordered == nil {
		return []model.User{}
	}
	return ordered
}

// Leaderboard 是 TopUsers(users, LeaderboardSize) 的简写
func Leaderboard(users []model.User) []model.User {
	return TopUsers(users, LeaderboardSize)
}
