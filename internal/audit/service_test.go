/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audit

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/netflexisp/netflex-onu-manager/internal/models"
)

func testService(t *testing.T) *Service {
	t.Helper()

	database, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&models.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		database.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.AuditLog{})
	})

	return NewService(database, zerolog.Nop())
}

func TestRecordAndLatest(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	err := svc.Record(ctx, models.AuditActionLogin, Entry{
		UserID:    1,
		Username:  "admin",
		Details:   "login",
		IPAddress: "10.1.2.3",
		UserAgent: "curl/8.0",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	logs, err := svc.Latest(ctx, 10)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d entries, want 1", len(logs))
	}
	entry := logs[0]
	if entry.Username != "admin" || entry.Action != models.AuditActionLogin {
		t.Errorf("unexpected entry %+v", entry)
	}
	if entry.IPAddress != "10.1.2.3" || entry.UserAgent != "curl/8.0" {
		t.Errorf("request context not persisted: %+v", entry)
	}
	if entry.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestLatestOrderAndClamp(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	for i := 0; i < MaxLogPage+20; i++ {
		err := svc.Record(ctx, models.AuditActionLocate, Entry{
			UserID:   2,
			Username: "tech1",
			Details:  fmt.Sprintf("lookup %d", i),
		})
		if err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	logs, err := svc.Latest(ctx, 0)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(logs) != MaxLogPage {
		t.Fatalf("got %d entries, want %d", len(logs), MaxLogPage)
	}
	if logs[0].Details != fmt.Sprintf("lookup %d", MaxLogPage+19) {
		t.Errorf("newest entry first, got %q", logs[0].Details)
	}

	logs, err = svc.Latest(ctx, 5)
	if err != nil {
		t.Fatalf("Latest(5): %v", err)
	}
	if len(logs) != 5 {
		t.Errorf("got %d entries, want 5", len(logs))
	}
}

func TestRecentByUser(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		if err := svc.Record(ctx, models.AuditActionSignal, Entry{UserID: 3, Username: "tech2"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := svc.Record(ctx, models.AuditActionLogin, Entry{UserID: 4, Username: "other"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	logs, err := svc.RecentByUser(ctx, 3, 5)
	if err != nil {
		t.Fatalf("RecentByUser: %v", err)
	}
	if len(logs) != 5 {
		t.Fatalf("got %d entries, want 5", len(logs))
	}
	for _, entry := range logs {
		if entry.UserID != 3 {
			t.Errorf("entry for user %d leaked into result", entry.UserID)
		}
	}
}

func TestStatsByUser(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	actions := []models.AuditAction{
		models.AuditActionLogin,
		models.AuditActionLocate,
		models.AuditActionLocate,
		models.AuditActionLocate,
		models.AuditActionSignal,
		models.AuditActionSignal,
	}
	for _, action := range actions {
		if err := svc.Record(ctx, action, Entry{UserID: 7, Username: "tech3"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := svc.Record(ctx, models.AuditActionLogin, Entry{UserID: 8, Username: "other"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	stats, err := svc.StatsByUser(ctx, 7)
	if err != nil {
		t.Fatalf("StatsByUser: %v", err)
	}

	counts := make(map[models.AuditAction]int64)
	for _, row := range stats {
		counts[row.Action] = row.Count
	}
	want := map[models.AuditAction]int64{
		models.AuditActionLogin:  1,
		models.AuditActionLocate: 3,
		models.AuditActionSignal: 2,
	}
	for action, n := range want {
		if counts[action] != n {
			t.Errorf("action %s: got %d, want %d", action, counts[action], n)
		}
	}
	if len(stats) != len(want) {
		t.Errorf("got %d grouped actions, want %d", len(stats), len(want))
	}
	if stats[0].Action != models.AuditActionLocate {
		t.Errorf("largest group first, got %s", stats[0].Action)
	}
}
