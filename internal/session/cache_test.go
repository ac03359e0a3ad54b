package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SlpAus/peer-review-backend/internal/apperr"
	"github.com/SlpAus/peer-review-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUsers 是内存里的用户存储，记录被调用的次数
type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]model.User

	emailLookups atomic.Int32
	idLookups    atomic.Int32
	idErr        error

	// afterEmailLookup 在查到记录之后、返回之前执行，用于模拟并发写入
	afterEmailLookup func()
}

func newFakeUsers(users ...model.User) *fakeUsers {
	f := &fakeUsers{byEmail: map[string]model.User{}}
	for _, u := range users {
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.emailLookups.Add(1)
	f.mu.Lock()
	u, ok := f.byEmail[email]
	f.mu.Unlock()
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if f.afterEmailLookup != nil {
		f.afterEmailLookup()
	}
	return &u, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	f.idLookups.Add(1)
	if f.idErr != nil {
		return nil, f.idErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeUsers) setPassword(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byEmail[email]
	u.Password = password
	f.byEmail[email] = u
}

var alice = model.User{ID: "u-alice", Email: "alice@example.com", Name: "Alice", Major: "CSE", Password: "s3cret", TopNum: 2}

func TestLogin_Success(t *testing.T) {
	users := newFakeUsers(alice)
	c := NewCache(users, 10, time.Hour)

	view, err := c.Login(context.Background(), alice.Email, "s3cret")

	require.NoError(t, err)
	assert.Equal(t, alice.ID, view.ID)
	assert.Equal(t, "Alice", view.Name)
	assert.True(t, c.IsActive(alice.Email))
}

func TestLogin_UnknownEmail(t *testing.T) {
	c := NewCache(newFakeUsers(), 10, time.Hour)

	_, err := c.Login(context.Background(), "nobody@example.com", "x")

	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 0, c.Len())
}

func TestLogin_WrongPassword(t *testing.T) {
	c := NewCache(newFakeUsers(alice), 10, time.Hour)

	_, err := c.Login(context.Background(), alice.Email, "S3cret")

	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	assert.False(t, c.IsActive(alice.Email))
}

func TestLogin_CachedSessionTakesPrecedence(t *testing.T) {
	users := newFakeUsers(alice)
	c := NewCache(users, 10, time.Hour)
	ctx := context.Background()

	first, err := c.Login(ctx, alice.Email, "s3cret")
	require.NoError(t, err)

	// 存储中的密码被修改后，缓存中的会话仍然生效
	users.setPassword(alice.Email, "changed")

	second, err := c.Login(ctx, alice.Email, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), users.emailLookups.Load(), "第二次登录不应访问存储")
}

func TestLogout_RemovesSession(t *testing.T) {
	users := newFakeUsers(alice)
	c := NewCache(users, 10, time.Hour)
	ctx := context.Background()
	_, err := c.Login(ctx, alice.Email, "s3cret")
	require.NoError(t, err)

	require.NoError(t, c.Logout(ctx, alice.ID))

	assert.False(t, c.IsActive(alice.Email))
	// 登出后需要重新校验密码
	_, err = c.Login(ctx, alice.Email, "wrong")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestLogout_Idempotent(t *testing.T) {
	c := NewCache(newFakeUsers(alice), 10, time.Hour)
	ctx := context.Background()

	assert.NoError(t, c.Logout(ctx, alice.ID), "会话不存在时也应成功")
	assert.NoError(t, c.Logout(ctx, "no-such-user"), "用户不存在时也应成功")
}

func TestLogout_StoreFailure(t *testing.T) {
	users := newFakeUsers(alice)
	users.idErr = errors.New("db down")
	c := NewCache(users, 10, time.Hour)

	err := c.Logout(context.Background(), alice.ID)

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
}

func TestCache_BoundedSize(t *testing.T) {
	c := NewCache(newFakeUsers(), 2, time.Hour)
	for i := 0; i < 5; i++ {
		c.Admit(model.User{ID: fmt.Sprint(i), Email: fmt.Sprintf("u%d@example.com", i)})
	}
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.IsActive("u4@example.com"))
	assert.False(t, c.IsActive("u0@example.com"))
}

func TestCache_Expiry(t *testing.T) {
	users := newFakeUsers(alice)
	c := NewCache(users, 10, 20*time.Millisecond)
	ctx := context.Background()
	_, err := c.Login(ctx, alice.Email, "s3cret")
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	assert.False(t, c.IsActive(alice.Email))
	_, err = c.Login(ctx, alice.Email, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int32(2), users.emailLookups.Load(), "过期后应重新查询存储")
}

func TestRefresh_OnlyReplacesActiveSession(t *testing.T) {
	users := newFakeUsers(alice)
	c := NewCache(users, 10, time.Hour)
	ctx := context.Background()

	updated := alice
	updated.Points = 99
	c.Refresh(updated)
	assert.False(t, c.IsActive(alice.Email), "没有会话时 Refresh 不应创建会话")

	_, err := c.Login(ctx, alice.Email, "s3cret")
	require.NoError(t, err)
	c.Refresh(updated)

	view, err := c.Login(ctx, alice.Email, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, 99, view.Points)
}

func TestConcurrentLoginLogout(t *testing.T) {
	var seed []model.User
	for i := 0; i < 20; i++ {
		seed = append(seed, model.User{ID: fmt.Sprint("id-", i), Email: fmt.Sprintf("u%d@example.com", i), Password: "pw"})
	}
	users := newFakeUsers(seed...)
	c := NewCache(users, 100, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, u := range seed {
		for j := 0; j < 5; j++ {
			wg.Add(2)
			go func(u model.User) {
				defer wg.Done()
				_, err := c.Login(ctx, u.Email, "pw")
				assert.NoError(t, err)
			}(u)
			go func(u model.User) {
				defer wg.Done()
				assert.NoError(t, c.Logout(ctx, u.ID))
			}(u)
		}
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), len(seed))
}

func TestVerify(t *testing.T) {
	assert.True(t, Verify("abc", "abc"))
	assert.False(t, Verify("abc", "abd"))
	assert.False(t, Verify("abc", "abcd"))
	assert.False(t, Verify("", "x"))
}

func TestLogin_InvalidatedDuringLookupIsNotCached(t *testing.T) {
	users := newFakeUsers(alice)
	c := NewCache(users, 10, time.Hour)
	// 模拟用户在登录查询期间被删除
	users.afterEmailLookup = func() {
		users.mu.Lock()
		delete(users.byEmail, alice.Email)
		users.mu.Unlock()
		c.Invalidate(alice.Email)
	}

	_, err := c.Login(context.Background(), alice.Email, alice.Password)
	require.NoError(t, err)
	assert.False(t, c.IsActive(alice.Email), "被移除的会话不能被并发的登录写回")

	users.afterEmailLookup = nil
	_, err = c.Login(context.Background(), alice.Email, alice.Password)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
