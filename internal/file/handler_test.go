package file

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SlpAus/peer-review-backend/internal/model"
	"github.com/SlpAus/peer-review-backend/internal/platform/database/dbtest"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) (*gin.Engine, *model.Project) {
	t.Helper()
	db := dbtest.New(t)
	u := &model.User{Email: "a@x.io", Password: "pw"}
	dbtest.MustCreate(t, db, u)
	p := &model.Project{UserID: u.ID, Title: "p"}
	dbtest.MustCreate(t, db, p)

	r := gin.New()
	NewHandler(NewRepository(db)).RegisterRoutes(r.Group("/api"))
	return r, p
}

func do(t *testing.T, r *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndList(t *testing.T) {
	r, p := newRouter(t)

	var created []model.File
	for _, title := range []string{"a.md", "b.md"} {
		w := do(t, r, http.MethodPost, "/api/files", CreateRequestBody{Project: p.ID, Title: title})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var f model.File
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f))
		assert.Equal(t, p.UserID, f.UserID, "作者取自项目")
		created = append(created, f)
	}

	w := do(t, r, http.MethodGet, "/api/files/project/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var files []model.File
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &files))
	require.Len(t, files, 2)
	assert.Equal(t, created[0].ID, files[0].ID)
	assert.Equal(t, created[1].ID, files[1].ID)

	w = do(t, r, http.MethodGet, "/api/files/"+created[0].ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a.md")
}

func TestCreate_UnknownProject(t *testing.T) {
	r, _ := newRouter(t)
	w := do(t, r, http.MethodPost, "/api/files", CreateRequestBody{Project: "missing", Title: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGet_Missing(t *testing.T) {
	r, _ := newRouter(t)
	w := do(t, r, http.MethodGet, "/api/files/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/files/project/empty", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
