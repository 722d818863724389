/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"strings"
	"time"
)

// RoleName enumerates the RBAC roles.
type RoleName string

const (
	RoleAdmin RoleName = "admin"
	RoleTech  RoleName = "tech"
)

// Valid reports whether the role is one the system knows about.
func (r RoleName) Valid() bool {
	return r == RoleAdmin || r == RoleTech
}

// User represents an authenticated operator account.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:80;not null" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      RoleName  `gorm:"type:varchar(16);default:tech" json:"role"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the table name for GORM.
func (User) TableName() string {
	return "users"
}

// OLT is a catalog entry for a line terminal managed by the NOC.
// Credentials are optional; lookups fall back to the universal pair stored
// in SystemConfig.
type OLT struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	IP        string    `gorm:"uniqueIndex;size:50;not null" json:"ip"`
	Username  *string   `gorm:"size:50" json:"username,omitempty"`
	Password  *string   `gorm:"size:255" json:"-"`
	Type      string    `gorm:"size:50;default:ZTE" json:"type"`
	Actions   string    `gorm:"size:255;default:view,edit,delete" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the table name for GORM.
func (OLT) TableName() string {
	return "olts"
}

// ActionList splits the stored CSV action string.
func (o OLT) ActionList() []string {
	if o.Actions == "" {
		return nil
	}
	return strings.Split(o.Actions, ",")
}

// StatusDescription maps an equipment status code to an operator-facing
// description and display color.
type StatusDescription struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StatusCode  string    `gorm:"uniqueIndex;size:50;not null" json:"status_code"`
	Description string    `gorm:"size:255;not null" json:"description"`
	Color       string    `gorm:"size:20;default:gray" json:"color"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// TableName returns the table name for GORM.
func (StatusDescription) TableName() string {
	return "status_descriptions"
}

// SystemConfig is a key/value pair for process-wide settings editable at
// runtime, e.g. the universal OLT credentials.
type SystemConfig struct {
	ID    uint   `gorm:"primaryKey" json:"-"`
	Key   string `gorm:"uniqueIndex;size:50;not null" json:"key"`
	Value string `gorm:"size:255" json:"value"`
}

// TableName returns the table name for GORM.
func (SystemConfig) TableName() string {
	return "system_config"
}

// SystemConfig keys.
const (
	ConfigUniversalUsername = "universal_username"
	ConfigUniversalPassword = "universal_password"
)
