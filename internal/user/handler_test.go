package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SlpAus/peer-review-backend/internal/ledger"
	"github.com/SlpAus/peer-review-backend/internal/model"
	"github.com/SlpAus/peer-review-backend/internal/platform/database/dbtest"
	"github.com/SlpAus/peer-review-backend/internal/platform/metrics"
	"github.com/SlpAus/peer-review-backend/internal/platform/ratelimit"
	"github.com/SlpAus/peer-review-backend/internal/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db       *gorm.DB
	sessions *session.Cache
	router   *gin.Engine
}

func newTestEnv(t *testing.T, limiter *ratelimit.Limiter) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	repo := NewRepository(db)
	sessions := session.NewCache(repo, 100, time.Hour)
	svc := NewService(repo, sessions, ledger.New(db, nil))

	r := gin.New()
	NewHandler(svc, limiter, metrics.New()).RegisterRoutes(r.Group("/api"))
	return &testEnv{db: db, sessions: sessions, router: r}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) register(t *testing.T, email, password string) model.PublicView {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/users", RegisterInput{
		Email: email, Name: "name-" + email, Password: password, Major: "cs",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[model.PublicView](t, w)
}

func TestRegister_DefaultsAndSession(t *testing.T) {
	env := newTestEnv(t, nil)

	view := env.register(t, "a@x.io", "pw")
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, InitialTopNum, view.TopNum)
	assert.Zero(t, view.Points)
	assert.Zero(t, view.LikedNum)
	assert.Zero(t, view.CommentNum)
	assert.True(t, env.sessions.IsActive("a@x.io"), "注册后应直接建立会话")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "a@x.io", "pw")

	w := env.do(t, http.MethodPost, "/api/users", RegisterInput{Email: "a@x.io", Name: "n", Password: "other"})
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&model.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGet_HidesPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	view := env.register(t, "a@x.io", "secret-pw")

	w := env.do(t, http.MethodGet, "/api/users/"+view.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-pw")
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do(t, http.MethodGet, "/api/users/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginLogoutFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	view := env.register(t, "a@x.io", "pw")

	w := env.do(t, http.MethodGet, "/api/users/logout/"+view.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, env.sessions.IsActive("a@x.io"))

	w = env.do(t, http.MethodPost, "/api/users/login", LoginRequestBody{Email: "a@x.io", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/users/login", LoginRequestBody{Email: "nobody@x.io", Password: "pw"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/users/login", LoginRequestBody{Email: "a@x.io", Password: "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, view.ID, decode[model.PublicView](t, w).ID)
	assert.True(t, env.sessions.IsActive("a@x.io"))

	// 登出未知用户同样成功
	w = env.do(t, http.MethodGet, "/api/users/logout/unknown", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func newTestLimiter(t *testing.T, limit int) *ratelimit.Limiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := ratelimit.New(client, "login_attempts:", limit, time.Minute)
	limiter.SetHealthCheck(func() bool { return true })
	return limiter
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t, newTestLimiter(t, 2))
	view := env.register(t, "a@x.io", "pw")

	// 注册会直接建立会话，先登出才会真正校验密码
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/users/logout/"+view.ID, nil).Code)

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/users/login", LoginRequestBody{Email: "a@x.io", Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := env.do(t, http.MethodPost, "/api/users/login", LoginRequestBody{Email: "a@x.io", Password: "pw"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, env.sessions.IsActive("a@x.io"), "被限流的请求不应建立会话")
}

func TestLogin_SuccessDoesNotResetWindow(t *testing.T) {
	env := newTestEnv(t, newTestLimiter(t, 3))
	env.register(t, "own@x.io", "pw")
	victim := env.register(t, "victim@x.io", "pw")
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/users/logout/"+victim.ID, nil).Code)

	guess := LoginRequestBody{Email: "victim@x.io", Password: "guess"}
	own := LoginRequestBody{Email: "own@x.io", Password: "pw"}

	require.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/users/login", guess).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/users/login", own).Code)
	require.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/users/login", guess).Code)

	w := env.do(t, http.MethodPost, "/api/users/login", guess)
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "自己账号的成功登录不能清空同一IP的窗口")
}

func TestExchangeTopUp(t *testing.T) {
	env := newTestEnv(t, nil)
	view := env.register(t, "a@x.io", "pw")
	require.NoError(t, env.db.Model(&model.User{}).Where("id = ?", view.ID).Update("points", 25).Error)

	w := env.do(t, http.MethodGet, "/api/users/exchange_topup?user_id="+view.ID+"&exchangeTopNum=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[model.PublicView](t, env.do(t, http.MethodGet, "/api/users/"+view.ID, nil))
	assert.Equal(t, 5, got.Points)
	assert.Equal(t, InitialTopNum+2, got.TopNum)

	// 会话快照同步刷新
	login := decode[model.PublicView](t, env.do(t, http.MethodPost, "/api/users/login", LoginRequestBody{Email: "a@x.io", Password: "pw"}))
	assert.Equal(t, 5, login.Points)

	w = env.do(t, http.MethodGet, "/api/users/exchange_topup?user_id="+view.ID+"&exchangeTopNum=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/users/exchange_topup?user_id="+view.ID+"&exchangeTopNum=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/users/exchange_topup?user_id=missing&exchangeTopNum=1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	view := env.register(t, "a@x.io", "pw")

	w := env.do(t, http.MethodDelete, "/api/users/"+view.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, env.sessions.IsActive("a@x.io"))

	w = env.do(t, http.MethodDelete, "/api/users/"+view.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTop10(t *testing.T) {
	env := newTestEnv(t, nil)
	for i := 0; i < 12; i++ {
		dbtest.MustCreate(t, env.db, &model.User{
			Email:    string(rune('a'+i)) + "@x.io",
			Password: "pw",
			Points:   i * 3,
		})
	}

	w := env.do(t, http.MethodGet, "/api/users/top10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	views := decode[[]model.PublicView](t, w)
	require.Len(t, views, 10)
	assert.Equal(t, 33, views[0].Points)
	for i := 1; i < len(views); i++ {
		assert.GreaterOrEqual(t, views[i-1].Points, views[i].Points)
	}
}

func TestConcurrentRegisterSameEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	var wg sync.WaitGroup
	codes := make([]int, 8)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = env.do(t, http.MethodPost, "/api/users", RegisterInput{Email: "same@x.io", Name: "n", Password: "pw"}).Code
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, code := range codes {
		if code == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusConflict, code)
		}
	}
	assert.Equal(t, 1, ok)
}
