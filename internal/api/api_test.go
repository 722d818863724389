/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/netflexisp/netflex-onu-manager/internal/audit"
	"github.com/netflexisp/netflex-onu-manager/internal/db"
	"github.com/netflexisp/netflex-onu-manager/internal/models"
	"github.com/netflexisp/netflex-onu-manager/internal/onusim"
)

var dbCounter atomic.Int64

type testEnv struct {
	db      *gorm.DB
	handler http.Handler
}

// newTestEnv spins up the full API against a fresh in-memory database
// with the bootstrap admin seeded and a zero-latency simulator.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:apitest%d?mode=memory&cache=shared", dbCounter.Add(1))
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Seed(database, "admin", "admin123", zerolog.Nop()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	auditSvc := audit.NewService(database, zerolog.Nop())
	a := New(database, []byte("test-secret"), 8*time.Hour, onusim.New(0), auditSvc, zerolog.Nop())

	router := chi.NewRouter()
	a.Routes(router)

	return &testEnv{db: database, handler: router}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()

	rec := e.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}

	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}
	return resp.Token
}

func (e *testEnv) createUser(t *testing.T, adminToken, username, password string, role models.RoleName) {
	t.Helper()

	rec := e.request(t, http.MethodPost, "/api/admin/users", adminToken, map[string]any{
		"username": username,
		"password": password,
		"role":     role,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}
}

func (e *testEnv) auditCount(t *testing.T) int64 {
	t.Helper()

	var n int64
	if err := e.db.Model(&models.AuditLog{}).Count(&n).Error; err != nil {
		t.Fatalf("count audit rows: %v", err)
	}
	return n
}

func TestBootstrapLoginAndUserList(t *testing.T) {
	env := newTestEnv(t)

	token := env.login(t, "admin", "admin123")

	rec := env.request(t, http.MethodGet, "/api/admin/users", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list users: status %d, body %s", rec.Code, rec.Body.String())
	}

	var users []userSummary
	if err := json.NewDecoder(rec.Body).Decode(&users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("fresh store has %d users, want 1", len(users))
	}
	if users[0].Username != "admin" || users[0].Role != models.RoleAdmin {
		t.Errorf("bootstrap user = %+v", users[0])
	}
}

func TestLoginFailureIsUniform(t *testing.T) {
	env := newTestEnv(t)

	wrongPassword := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin", "password": "nope",
	})
	unknownUser := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "ghost", "password": "nope",
	})

	if wrongPassword.Code != http.StatusUnauthorized || unknownUser.Code != http.StatusUnauthorized {
		t.Fatalf("statuses %d and %d, want both 401", wrongPassword.Code, unknownUser.Code)
	}
	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Errorf("failure bodies differ: %q vs %q", wrongPassword.Body.String(), unknownUser.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(wrongPassword.Body).Decode(&resp); err != nil {
		t.Fatalf("decode failure body: %v", err)
	}
	if resp["error"] != "invalid_credentials" {
		t.Errorf("failure code = %q, want invalid_credentials", resp["error"])
	}
}

func TestLoginWritesAuditRow(t *testing.T) {
	env := newTestEnv(t)

	env.login(t, "admin", "admin123")

	var row models.AuditLog
	if err := env.db.Where("action = ?", models.AuditActionLogin).First(&row).Error; err != nil {
		t.Fatalf("no LOGIN audit row: %v", err)
	}
	if row.Username != "admin" {
		t.Errorf("audit row username = %q", row.Username)
	}
}

func TestAuthCheck(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")

	rec := env.request(t, http.MethodGet, "/api/auth/check", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("check: status %d", rec.Code)
	}

	var resp struct {
		User userSummary `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Username != "admin" || resp.User.Role != models.RoleAdmin {
		t.Errorf("check identity = %+v", resp.User)
	}
}

func TestProtectedRouteRejectsAnonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/user/stats", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status %d, want 401", rec.Code)
	}

	rec = env.request(t, http.MethodGet, "/api/user/stats", "not-a-real-token", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("garbage token: status %d, want 403", rec.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.login(t, "admin", "admin123")
	env.createUser(t, adminToken, "tech1", "fieldpass", models.RoleTech)
	techToken := env.login(t, "tech1", "fieldpass")

	for _, path := range []string{"/api/admin/users", "/api/admin/logs", "/api/admin/olts"} {
		rec := env.request(t, http.MethodGet, path, techToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("GET %s as tech: status %d, want 403", path, rec.Code)
		}
	}
}

func TestOnuLocateKnownSerial(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")

	rec := env.request(t, http.MethodPost, "/api/onu/locate", token, map[string]string{"sn": "ZTEG12345678"})
	if rec.Code != http.StatusOK {
		t.Fatalf("locate: status %d, body %s", rec.Code, rec.Body.String())
	}

	var dev onusim.Device
	if err := json.NewDecoder(rec.Body).Decode(&dev); err != nil {
		t.Fatalf("decode device: %v", err)
	}
	want := onusim.Device{
		SN: "ZTEG12345678", OLT: "OLT PJT 1", IP: "10.0.1.1",
		Interface: "gpon-olt_1/1/1:1", Status: "Working",
		Signals: onusim.Signals{RxOnu: -19.5, TxOnu: 2100, RxOlt: -22.1, TxOlt: 3200},
	}
	if dev != want {
		t.Errorf("locate result:\n got %+v\nwant %+v", dev, want)
	}

	var row models.AuditLog
	if err := env.db.Where("action = ?", models.AuditActionLocate).First(&row).Error; err != nil {
		t.Errorf("no LOCATE audit row: %v", err)
	}
}

func TestOnuLocateRejectsShortSerialWithoutAudit(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")
	before := env.auditCount(t)

	rec := env.request(t, http.MethodPost, "/api/onu/locate", token, map[string]string{"sn": "TOOSHORT"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short serial: status %d, want 400", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp["error"] != "invalid_serial_number" {
		t.Errorf("error code = %q, want invalid_serial_number", resp["error"])
	}
	if after := env.auditCount(t); after != before {
		t.Errorf("rejected lookup wrote %d audit rows", after-before)
	}
}

func TestOnuSignalPathParam(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")

	rec := env.request(t, http.MethodGet, "/api/onu/signal/HWTC87654321", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("signal: status %d, body %s", rec.Code, rec.Body.String())
	}

	var dev onusim.Device
	if err := json.NewDecoder(rec.Body).Decode(&dev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dev.Status != "Offline" || dev.Signals.TxOnu != 0 {
		t.Errorf("signal result = %+v", dev)
	}

	var row models.AuditLog
	if err := env.db.Where("action = ?", models.AuditActionSignal).First(&row).Error; err != nil {
		t.Errorf("no SIGNAL audit row: %v", err)
	}
}

func TestOnuDeleteIsAuditedNoOp(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")

	rec := env.request(t, http.MethodDelete, "/api/onu/ZTEG12345678", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d, body %s", rec.Code, rec.Body.String())
	}

	var row models.AuditLog
	if err := env.db.Where("action = ?", models.AuditActionDelete).First(&row).Error; err != nil {
		t.Errorf("no DELETE audit row: %v", err)
	}
}

func TestUserCreateDuplicate(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")
	env.createUser(t, token, "tech1", "fieldpass", models.RoleTech)

	rec := env.request(t, http.MethodPost, "/api/admin/users", token, map[string]any{
		"username": "tech1", "password": "other", "role": models.RoleTech,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate create: status %d, want 400", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp["error"] != "user_already_exists" {
		t.Errorf("error code = %q, want user_already_exists", resp["error"])
	}
}

func TestUserSelfDeleteGuard(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")

	var admin models.User
	if err := env.db.Where("username = ?", "admin").First(&admin).Error; err != nil {
		t.Fatalf("load admin: %v", err)
	}

	rec := env.request(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", admin.ID), token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("self delete: status %d, want 400", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp["error"] != "cannot_delete_own_account" {
		t.Errorf("error code = %q, want cannot_delete_own_account", resp["error"])
	}

	var count int64
	env.db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Errorf("user count changed to %d", count)
	}
}

func TestUserDeleteAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")
	env.createUser(t, token, "tech1", "fieldpass", models.RoleTech)

	var tech models.User
	if err := env.db.Where("username = ?", "tech1").First(&tech).Error; err != nil {
		t.Fatalf("load tech1: %v", err)
	}

	rec := env.request(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d", tech.ID), token, map[string]string{
		"password": "rotated",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d, body %s", rec.Code, rec.Body.String())
	}
	env.login(t, "tech1", "rotated")

	rec = env.request(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", tech.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d, body %s", rec.Code, rec.Body.String())
	}

	var count int64
	env.db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Errorf("user count = %d after delete, want 1", count)
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")

	rec := env.request(t, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "wrong", "newPassword": "next",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("wrong current password: status %d, want 400", rec.Code)
	}

	rec = env.request(t, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "admin123", "newPassword": "s3cure-pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("change password: status %d, body %s", rec.Code, rec.Body.String())
	}

	env.login(t, "admin", "s3cure-pass")

	rec = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin", "password": "admin123",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("old password still accepted: status %d", rec.Code)
	}
}

func TestAuditLogListing(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")

	for i := 0; i < 3; i++ {
		rec := env.request(t, http.MethodPost, "/api/onu/locate", token, map[string]string{"sn": "ALCL1A2B3C4D"})
		if rec.Code != http.StatusOK {
			t.Fatalf("locate %d: status %d", i, rec.Code)
		}
	}

	rec := env.request(t, http.MethodGet, "/api/admin/logs", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logs: status %d", rec.Code)
	}

	var logs []models.AuditLog
	if err := json.NewDecoder(rec.Body).Decode(&logs); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	// 1 login + 3 locates
	if len(logs) != 4 {
		t.Fatalf("got %d log rows, want 4", len(logs))
	}
	if logs[0].Action != models.AuditActionLocate {
		t.Errorf("newest first, got %s", logs[0].Action)
	}

	rec = env.request(t, http.MethodGet, "/api/admin/logs?limit=2", token, nil)
	var limited []models.AuditLog
	if err := json.NewDecoder(rec.Body).Decode(&limited); err != nil {
		t.Fatalf("decode limited logs: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit=2 returned %d rows", len(limited))
	}
}

func TestUserStatsAndRecent(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")

	for i := 0; i < 2; i++ {
		env.request(t, http.MethodPost, "/api/onu/locate", token, map[string]string{"sn": "NETF00000001"})
	}
	env.request(t, http.MethodGet, "/api/onu/signal/NETF00000001", token, nil)

	rec := env.request(t, http.MethodGet, "/api/user/stats", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: status %d", rec.Code)
	}
	var stats []audit.ActionCount
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	counts := map[models.AuditAction]int64{}
	for _, s := range stats {
		counts[s.Action] = s.Count
	}
	if counts[models.AuditActionLogin] != 1 || counts[models.AuditActionLocate] != 2 || counts[models.AuditActionSignal] != 1 {
		t.Errorf("stats = %v", counts)
	}

	rec = env.request(t, http.MethodGet, "/api/user/recent", token, nil)
	var recent []models.AuditLog
	if err := json.NewDecoder(rec.Body).Decode(&recent); err != nil {
		t.Fatalf("decode recent: %v", err)
	}
	if len(recent) != 4 {
		t.Errorf("recent returned %d rows, want 4", len(recent))
	}
}

func TestOLTCatalogCRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")

	rec := env.request(t, http.MethodPost, "/api/admin/olts", token, map[string]any{
		"name": "OLT HQ 1", "ip": "10.10.0.1", "password": "telnet-pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create olt: status %d, body %s", rec.Code, rec.Body.String())
	}
	var created oltResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Type != "ZTE" {
		t.Errorf("default type = %q, want ZTE", created.Type)
	}
	if !created.HasPassword {
		t.Error("stored password not reflected in has_password")
	}

	rec = env.request(t, http.MethodPost, "/api/admin/olts", token, map[string]any{
		"name": "OLT HQ 2", "ip": "10.10.0.1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate ip: status %d, want 400", rec.Code)
	}

	rec = env.request(t, http.MethodPut, fmt.Sprintf("/api/admin/olts/%d", created.ID), token, map[string]any{
		"password": "",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update olt: status %d", rec.Code)
	}
	var updated oltResponse
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.HasPassword {
		t.Error("empty password did not clear stored credentials")
	}

	rec = env.request(t, http.MethodDelete, fmt.Sprintf("/api/admin/olts/%d", created.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete olt: status %d", rec.Code)
	}
}

func TestStatusDescriptionsSeededAndEditable(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")

	rec := env.request(t, http.MethodGet, "/api/admin/statuses", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list statuses: status %d", rec.Code)
	}
	var statuses []models.StatusDescription
	if err := json.NewDecoder(rec.Body).Decode(&statuses); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(statuses) != 4 {
		t.Fatalf("seeded %d statuses, want 4", len(statuses))
	}

	rec = env.request(t, http.MethodPost, "/api/admin/statuses", token, map[string]string{
		"status_code": "Working", "description": "duplicate",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate status code: status %d, want 400", rec.Code)
	}

	rec = env.request(t, http.MethodPut, fmt.Sprintf("/api/admin/statuses/%d", statuses[0].ID), token, map[string]string{
		"color": "teal",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status: status %d", rec.Code)
	}
}

func TestSystemConfigUpsertAndMasking(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "admin123")

	rec := env.request(t, http.MethodPost, "/api/admin/config", token, map[string]string{
		"universal_username": "noc", "universal_password": "olt-secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set config: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.request(t, http.MethodGet, "/api/admin/config", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get config: status %d", rec.Code)
	}
	var cfg map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg[models.ConfigUniversalUsername] != "noc" {
		t.Errorf("username = %q", cfg[models.ConfigUniversalUsername])
	}
	if cfg[models.ConfigUniversalPassword] == "olt-secret" {
		t.Error("password returned unmasked")
	}

	// Upsert only the username; the password stays.
	rec = env.request(t, http.MethodPost, "/api/admin/config", token, map[string]string{
		"universal_username": "noc2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("partial set: status %d", rec.Code)
	}

	var row models.SystemConfig
	if err := env.db.Where("key = ?", models.ConfigUniversalPassword).First(&row).Error; err != nil {
		t.Fatalf("load password row: %v", err)
	}
	if row.Value != "olt-secret" {
		t.Errorf("partial update clobbered password: %q", row.Value)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}
}
