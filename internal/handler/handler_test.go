package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/config"
	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type fakeAdmins struct {
	admins map[int64]*domain.Admin
	nextID int64
}

func (f *fakeAdmins) GetAdminByID(id int64) (*domain.Admin, error) {
	admin, ok := f.admins[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *admin
	return &copied, nil
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1
	cfg.Upload.Dir = t.TempDir()
	cfg.App.LatestVersion = "1.4.0"
	cfg.App.MinSupportedVersion = "1.2.0"
	cfg.App.DownloadURL = "https://example.com/app.apk"

	h, err := NewHandler(cfg, nil, nil, nil)
	require.NoError(t, err)
	h.admins = &fakeAdmins{admins: map[int64]*domain.Admin{}}
	h.RegisterRoutes()

	return h
}

func do(t *testing.T, h *Handler, req *http.Request) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	var resp testResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

// bearer 注册一个启用的管理员并返回其令牌
func bearer(t *testing.T, h *Handler, role domain.Role) string {
	t.Helper()

	store := h.admins.(*fakeAdmins)
	store.nextID++
	admin := &domain.Admin{ID: store.nextID, Email: fmt.Sprintf("admin%d@example.com", store.nextID), Role: role, IsActive: true}
	store.admins[admin.ID] = admin

	ss, err := h.signToken(admin, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return "Bearer " + ss
}

func TestGetShifts(t *testing.T) {
	h := newTestHandler(t)

	rec, resp := do(t, h, httptest.NewRequest(http.MethodGet, "/pricing/shifts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	var shifts []shiftWithTimeSlots
	require.NoError(t, json.Unmarshal(resp.Data, &shifts))
	require.Len(t, shifts, 6)

	assert.Equal(t, "Morning", string(shifts[0].Shift))
	require.Len(t, shifts[0].TimeSlots, 2)
	assert.Equal(t, "07:00 AM - 11:00 AM", shifts[0].TimeSlots[0].TimeSlot)
	assert.Equal(t, int64(700), shifts[0].TimeSlots[1].Amount)

	assert.Equal(t, "24Hours", string(shifts[5].Shift))
	assert.Equal(t, "fullDay", string(shifts[5].TimeSlots[0].SeatShift))
}

func TestGetShiftTimeSlots(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		shift string
		want  []string
	}{
		{"Night", []string{"07:00 PM - 11:00 PM", "07:00 PM - 07:00 AM"}},
		{"Evening", []string{"03:00PM - 07:00PM"}},
		{"Weekend", []string{}},
	}

	for _, tt := range tests {
		_, resp := do(t, h, httptest.NewRequest(http.MethodGet, "/pricing/shifts/"+tt.shift+"/time-slots", nil))
		require.True(t, resp.Success)

		var got []string
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, tt.want, got, "shift %s", tt.shift)
	}
}

func TestResolveTimeSlot(t *testing.T) {
	h := newTestHandler(t)

	type resolved struct {
		TimeSlot       string `json:"timeSlot"`
		NormalizedTime string `json:"normalizedTime"`
		Amount         int64  `json:"amount"`
		SeatShift      string `json:"seatShift"`
	}

	tests := []struct {
		name  string
		query string
		want  resolved
	}{
		{
			name:  "exact",
			query: "time=07:00+PM+-+07:00+AM",
			want:  resolved{TimeSlot: "07:00 PM - 07:00 AM", NormalizedTime: "07:00 PM - 07:00 AM", Amount: 500, SeatShift: "nightLong"},
		},
		{
			name:  "exact lookup does not normalize",
			query: "time=07:00AM+-+11:00AM",
			want:  resolved{NormalizedTime: "07:00 AM - 11:00 AM"},
		},
		{
			name:  "stored time with shift",
			query: "time=07:00AM+-+11:00AM&shift=Morning",
			want:  resolved{TimeSlot: "07:00 AM - 11:00 AM", NormalizedTime: "07:00 AM - 11:00 AM", Amount: 300, SeatShift: "morning"},
		},
		{
			name:  "evening literal",
			query: "time=03:00+PM+-+07:00+PM&shift=Evening",
			want:  resolved{TimeSlot: "03:00PM - 07:00PM", NormalizedTime: "03:00 PM - 07:00 PM", Amount: 300, SeatShift: "evening"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp := do(t, h, httptest.NewRequest(http.MethodGet, "/pricing/resolve?"+tt.query, nil))
			require.True(t, resp.Success, resp.Message)

			var got resolved
			require.NoError(t, json.Unmarshal(resp.Data, &got))
			assert.Equal(t, tt.want, got)
		})
	}

	_, resp := do(t, h, httptest.NewRequest(http.MethodGet, "/pricing/resolve", nil))
	assert.False(t, resp.Success)

	_, resp = do(t, h, httptest.NewRequest(http.MethodGet, "/pricing/resolve?time=24+Hours&shift=Weekend", nil))
	assert.False(t, resp.Success)
	assert.Equal(t, "无效的班次", resp.Message)
}

func TestProtectedRoutesRequireLogin(t *testing.T) {
	h := newTestHandler(t)

	for _, path := range []string{"/students", "/seats", "/invoices", "/my-info"} {
		rec, resp := do(t, h, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.False(t, resp.Success, path)
		assert.Equal(t, "用户未登录", resp.Message, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/seats", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	_, resp := do(t, h, req)
	assert.Equal(t, "无效的令牌", resp.Message)

	req = httptest.NewRequest(http.MethodGet, "/seats", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: "not-a-token"})
	_, resp = do(t, h, req)
	assert.Equal(t, "无效的令牌", resp.Message)
}

func TestAuthReloadsAdminOnEveryRequest(t *testing.T) {
	h := newTestHandler(t)
	store := h.admins.(*fakeAdmins)
	token := bearer(t, h, domain.RoleSuperAdmin)
	admin := store.admins[store.nextID]

	get := func() testResponse {
		req := httptest.NewRequest(http.MethodGet, "/my-info", nil)
		req.Header.Set("Authorization", token)
		_, resp := do(t, h, req)
		return resp
	}

	resp := get()
	require.True(t, resp.Success, resp.Message)
	var me domain.Admin
	require.NoError(t, json.Unmarshal(resp.Data, &me))
	assert.Equal(t, admin.Email, me.Email)

	// 角色降级后，令牌中的旧角色不再生效
	admin.Role = domain.RoleFrontDesk
	req := httptest.NewRequest(http.MethodPost, "/seats", strings.NewReader(`{"seatNumbers":["1"]}`))
	req.Header.Set("Authorization", token)
	_, resp = do(t, h, req)
	assert.Equal(t, "权限不足", resp.Message)

	admin.IsActive = false
	resp = get()
	assert.False(t, resp.Success)
	assert.Equal(t, "账户已停用", resp.Message)

	delete(store.admins, admin.ID)
	resp = get()
	assert.False(t, resp.Success)
	assert.Equal(t, "用户不存在", resp.Message)
}

func TestVacantSeatsRejectsEmptyOrUnknownKey(t *testing.T) {
	h := newTestHandler(t)
	token := bearer(t, h, domain.RoleFrontDesk)

	req := httptest.NewRequest(http.MethodGet, "/seats/vacant", nil)
	req.Header.Set("Authorization", token)
	_, resp := do(t, h, req)
	assert.False(t, resp.Success)
	assert.Equal(t, "请先选择时间段", resp.Message)

	req = httptest.NewRequest(http.MethodGet, "/seats/vacant?seatShift=Morning", nil)
	req.Header.Set("Authorization", token)
	_, resp = do(t, h, req)
	assert.False(t, resp.Success)
	assert.Equal(t, "无效的座位时段", resp.Message)
}

func TestSuperAdminOnlyRoutes(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/seats", strings.NewReader(`{"seatNumbers":["1"]}`))
	req.Header.Set("Authorization", bearer(t, h, domain.RoleFrontDesk))
	_, resp := do(t, h, req)
	assert.False(t, resp.Success)
	assert.Equal(t, "权限不足", resp.Message)
}

func TestPaymentValidation(t *testing.T) {
	h := newTestHandler(t)
	token := bearer(t, h, domain.RoleFrontDesk)

	for _, body := range []string{`{"sid": 0}`, `{"sid": 3, "extraPaymentAmount": -10}`, ``} {
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
		req.Header.Set("Authorization", token)
		_, resp := do(t, h, req)
		assert.False(t, resp.Success, body)
		assert.NotEmpty(t, resp.Message, body)
	}
}

func TestLoginValidationIsTranslated(t *testing.T) {
	h := newTestHandler(t)

	_, resp := do(t, h, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"password":"x"}`)))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "Email")
	assert.Contains(t, resp.Message, "必填")

	_, resp = do(t, h, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`)))
	assert.False(t, resp.Success)
	assert.Equal(t, "请求体格式错误", resp.Message)
}

func TestVersionCheck(t *testing.T) {
	h := newTestHandler(t)

	type result struct {
		UpdateAvailable bool   `json:"updateAvailable"`
		Version         string `json:"version"`
		DownloadURL     string `json:"downloadUrl"`
		ForceUpdate     bool   `json:"forceUpdate"`
	}

	tests := []struct {
		current string
		want    result
	}{
		{"1.4.0", result{UpdateAvailable: false, ForceUpdate: false}},
		{"1.3.2", result{UpdateAvailable: true, ForceUpdate: false}},
		{"1.1.9", result{UpdateAvailable: true, ForceUpdate: true}},
	}

	for _, tt := range tests {
		body := `{"currentVersion":"` + tt.current + `","platform":"android"}`
		_, resp := do(t, h, httptest.NewRequest(http.MethodPost, "/version-check", strings.NewReader(body)))
		require.True(t, resp.Success, resp.Message)

		var got result
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, tt.want.UpdateAvailable, got.UpdateAvailable, tt.current)
		assert.Equal(t, tt.want.ForceUpdate, got.ForceUpdate, tt.current)
		assert.Equal(t, "1.4.0", got.Version)
		assert.Equal(t, "https://example.com/app.apk", got.DownloadURL)
	}

	_, resp := do(t, h, httptest.NewRequest(http.MethodPost, "/version-check", strings.NewReader(`{"currentVersion":"1.0","platform":"web"}`)))
	assert.False(t, resp.Success)
}

func TestUploadsServesFilesWithoutListing(t *testing.T) {
	h := newTestHandler(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.config.Upload.Dir, "a.jpg"), []byte("jpeg"), 0o644))

	rec, _ := do(t, h, httptest.NewRequest(http.MethodGet, "/uploads/a.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg", rec.Body.String())

	rec, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/uploads/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
