/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/netflexisp/netflex-onu-manager/internal/config"
	"github.com/netflexisp/netflex-onu-manager/internal/db"
	"github.com/netflexisp/netflex-onu-manager/internal/logging"
	"github.com/netflexisp/netflex-onu-manager/internal/models"
	"github.com/netflexisp/netflex-onu-manager/internal/server"
	"github.com/netflexisp/netflex-onu-manager/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "netflexd",
	Short:   "NetFlex ONU manager - field technician dashboard backend",
	Long:    "NetFlex ONU manager serves the role-gated dashboard API for locating and diagnosing customer ONUs over a simulated OLT backend.",
	Version: version.Version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the NetFlex ONU manager server",
	Long:  "Start the HTTP API server and the Prometheus metrics listener",
	RunE:  runServe,
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long:  "Create an admin account without going through the bootstrap default. When --password is omitted a random one-time password is generated and printed once.",
	RunE:  runCreateAdmin,
}

var (
	createAdminUsername string
	createAdminPassword string
)

func init() {
	createAdminCmd.Flags().StringVar(&createAdminUsername, "username", "", "username for the new admin (required)")
	createAdminCmd.Flags().StringVar(&createAdminPassword, "password", "", "password for the new admin (random when omitted)")
	_ = createAdminCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it).
func loadConfig() error {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Str("version", version.Version).Msg("NetFlex ONU manager starting")

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gracefully...")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if err := srv.Close(); err != nil {
		logger.Error().Err(err).Msg("shutdown cleanup failed")
	}

	logger.Info().Msg("NetFlex ONU manager stopped")
	return nil
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	database, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	password := createAdminPassword
	generated := false
	if password == "" {
		password = uuid.NewString()
		generated = true
	}

	var existing models.User
	if err := database.First(&existing, "username = ?", createAdminUsername).Error; err == nil {
		return fmt.Errorf("user %q already exists", createAdminUsername)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := models.User{
		Username: createAdminUsername,
		Password: string(hash),
		Role:     models.RoleAdmin,
	}
	if err := database.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	if generated {
		// Printed once; not logged or stored anywhere else.
		fmt.Printf("admin %q created with one-time password: %s\n", createAdminUsername, password)
	} else {
		fmt.Printf("admin %q created\n", createAdminUsername)
	}
	return nil
}
