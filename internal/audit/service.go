/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package audit persists the activity trail behind the dashboard: who
// logged in, which serials they looked up, and every administrative
// change. Writes happen on the request path so a row is committed before
// the response leaves the handler.
package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/netflexisp/netflex-onu-manager/internal/models"
)

// MaxLogPage caps how many entries a log query returns.
const MaxLogPage = 100

// Entry is the request-scoped context attached to a recorded action.
type Entry struct {
	UserID    uint
	Username  string
	Details   string
	IPAddress string
	UserAgent string
}

// EntryFor builds an Entry from an explicit identity plus the request's
// origin address and agent. Used where the identity comes from the
// database rather than token claims, e.g. during login.
func EntryFor(userID uint, username string, r *http.Request) Entry {
	return Entry{
		UserID:    userID,
		Username:  username,
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
}

// Service records and queries audit entries.
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewService creates a new audit service.
func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Record writes one audit row. Failures are logged and returned but
// callers treat them as non-fatal: the action itself already happened.
func (s *Service) Record(ctx context.Context, action models.AuditAction, entry Entry) error {
	row := &models.AuditLog{
		UserID:    entry.UserID,
		Username:  entry.Username,
		Action:    action,
		Details:   entry.Details,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
		Timestamp: time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		s.logger.Error().Err(err).
			Str("action", string(action)).
			Str("username", entry.Username).
			Msg("failed to record audit entry")
		return err
	}
	return nil
}

// Latest returns up to limit entries, newest first. Limits outside
// 1..MaxLogPage are clamped to MaxLogPage.
func (s *Service) Latest(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > MaxLogPage {
		limit = MaxLogPage
	}

	var logs []models.AuditLog
	err := s.db.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// RecentByUser returns the user's latest entries, newest first.
func (s *Service) RecentByUser(ctx context.Context, userID uint, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > MaxLogPage {
		limit = MaxLogPage
	}

	var logs []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// ActionCount is one row of a per-user activity breakdown.
type ActionCount struct {
	Action models.AuditAction `json:"action"`
	Count  int64              `json:"count"`
}

// StatsByUser groups the user's entries by action and counts them.
func (s *Service) StatsByUser(ctx context.Context, userID uint) ([]ActionCount, error) {
	var stats []ActionCount
	err := s.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Select("action, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("action").
		Order("count DESC, action ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
