/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/netflexisp/netflex-onu-manager/internal/models"
)

// Seed ensures the bootstrap admin account and the default status
// descriptions exist. It is idempotent and runs once at startup before the
// server accepts traffic.
func Seed(database *gorm.DB, adminUser, adminPassword string, logger zerolog.Logger) error {
	if err := seedAdmin(database, adminUser, adminPassword, logger); err != nil {
		return err
	}
	return seedStatusDescriptions(database)
}

func seedAdmin(database *gorm.DB, adminUser, adminPassword string, logger zerolog.Logger) error {
	var existing models.User
	err := database.First(&existing, "username = ?", adminUser).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("look up bootstrap admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap admin password: %w", err)
	}

	admin := models.User{
		Username: adminUser,
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := database.Create(&admin).Error; err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	logger.Warn().
		Str("username", adminUser).
		Msg("bootstrap admin created with the default password; change it after first login")
	return nil
}

// Default status descriptions shown by the dashboard; operators can edit
// or extend them through the admin panel.
func seedStatusDescriptions(database *gorm.DB) error {
	defaults := []models.StatusDescription{
		{StatusCode: "Working", Description: "ONU online and operational", Color: "green"},
		{StatusCode: "LOS", Description: "Loss of signal on the optical link", Color: "red"},
		{StatusCode: "Offline", Description: "ONU not responding", Color: "gray"},
		{StatusCode: "DyingGasp", Description: "ONU reported power loss before going down", Color: "orange"},
	}

	for _, status := range defaults {
		var existing models.StatusDescription
		err := database.First(&existing, "status_code = ?", status.StatusCode).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("look up status %s: %w", status.StatusCode, err)
		}
		if err := database.Create(&status).Error; err != nil {
			return fmt.Errorf("seed status %s: %w", status.StatusCode, err)
		}
	}
	return nil
}
