/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// AuditAction defines the type of audited action.
type AuditAction string

// Audit action constants for all sensitive operations.
const (
	AuditActionLogin          AuditAction = "LOGIN"
	AuditActionLocate         AuditAction = "LOCATE"
	AuditActionSignal         AuditAction = "SIGNAL"
	AuditActionDelete         AuditAction = "DELETE"
	AuditActionChangePassword AuditAction = "CHANGE_PASSWORD"
	AuditActionUserCreate     AuditAction = "USER_CREATE"
	AuditActionUserUpdate     AuditAction = "USER_UPDATE"
	AuditActionUserDelete     AuditAction = "USER_DELETE"
	AuditActionOLTCreate      AuditAction = "OLT_CREATE"
	AuditActionOLTUpdate      AuditAction = "OLT_UPDATE"
	AuditActionOLTDelete      AuditAction = "OLT_DELETE"
	AuditActionStatusCreate   AuditAction = "STATUS_CREATE"
	AuditActionStatusUpdate   AuditAction = "STATUS_UPDATE"
	AuditActionStatusDelete   AuditAction = "STATUS_DELETE"
	AuditActionConfigUpdate   AuditAction = "CONFIG_UPDATE"
)

// AuditLog records sensitive operations for security and traceability.
// Rows are append-only; nothing in the exposed surface mutates or deletes
// them.
type AuditLog struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"index:idx_audit_user" json:"user_id"`
	Username  string      `gorm:"size:80" json:"username"` // Denormalized for readability
	Action    AuditAction `gorm:"type:varchar(32);index:idx_audit_action;not null" json:"action"`
	Details   string      `gorm:"size:500" json:"details"`
	IPAddress string      `gorm:"size:45" json:"ip_address"` // IPv4 or IPv6
	UserAgent string      `gorm:"size:512" json:"user_agent"`
	Timestamp time.Time   `gorm:"index:idx_audit_timestamp;not null" json:"timestamp"`
}

// TableName returns the table name for GORM.
func (AuditLog) TableName() string {
	return "audit_logs"
}
