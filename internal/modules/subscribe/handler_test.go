package subscribe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/starboard-analytics/news-core/internal/middleware"
	"github.com/starboard-analytics/news-core/internal/models"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	svc := NewService(db, nil, zap.NewNop())
	r := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api"), middleware.CronAuth("s3cret"))
	return r, db
}

func postJSON(r *gin.Engine, url, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSubscribeEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(r, "/api/subscribe", `{"email":"a@b.co","feeds":["minor_news"]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success bool     `json:"success"`
		Message string   `json:"message"`
		Feeds   []string `json:"feeds"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Message != "订阅成功" || len(resp.Feeds) != 1 {
		t.Fatalf("resp = %+v", resp)
	}

	// Same address again is an update, not a conflict.
	w = postJSON(r, "/api/subscribe", `{"email":"a@b.co","feeds":["into_crypto_en"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "订阅已更新" || len(resp.Feeds) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSubscribeEndpointValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		body string
		want string
	}{
		{`{"email":"nope","feeds":["minor_news"]}`, "请输入有效的邮箱地址"},
		{`{"email":"a@b.co","feeds":[]}`, "请至少选择一个订阅频道"},
		{`{"email":"a@b.co","feeds":["bogus"]}`, "无效的订阅频道"},
	}
	for _, tc := range cases {
		w := postJSON(r, "/api/subscribe", tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", tc.body, w.Code)
		}
		if !strings.Contains(w.Body.String(), tc.want) {
			t.Fatalf("%s: body = %s", tc.body, w.Body.String())
		}
	}
}

func TestUnsubscribeEndpoints(t *testing.T) {
	r, db := newTestRouter(t)

	if w := postJSON(r, "/api/subscribe", `{"email":"a@b.co","feeds":["minor_news"]}`); w.Code != http.StatusCreated {
		t.Fatalf("setup failed: %s", w.Body.String())
	}
	var row models.SubscriptionModel
	if err := db.Where("email = ?", "a@b.co").First(&row).Error; err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unsubscribe?token="+row.UnsubscribeToken, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "a@b.co") {
		t.Fatalf("confirmation should echo the address: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unsubscribe?token=ghost", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid or expired unsubscribe link") {
		t.Fatalf("body = %s", w.Body.String())
	}

	if w := postJSON(r, "/api/unsubscribe", `{"email":"ghost@b.co"}`); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if w := postJSON(r, "/api/unsubscribe", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	if w := postJSON(r, "/api/subscribe", `{"email":"a@b.co","feeds":["minor_news"]}`); w.Code != http.StatusCreated {
		t.Fatalf("setup failed: %s", w.Body.String())
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/export", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/export", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		ActiveCount   int `json:"active_count"`
		TotalCount    int `json:"total_count"`
		Subscriptions []struct {
			Email string `json:"email"`
		} `json:"subscriptions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ActiveCount != 1 || resp.TotalCount != 1 || len(resp.Subscriptions) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Subscriptions[0].Email != "a@b.co" {
		t.Fatalf("resp = %+v", resp)
	}
}
