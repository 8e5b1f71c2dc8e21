package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/carehub/internal/config"
	"github.com/erazemk/carehub/internal/db"
	"github.com/erazemk/carehub/internal/model"
	"github.com/erazemk/carehub/internal/store"
)

const adminPasswordLength = 16

func newInitCmd(v *viper.Viper, load func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new database with an admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindFlags(v, cmd.Flags(), map[string]string{"admin_user": "admin-user"})
			cfg, err := load()
			if err != nil {
				return err
			}

			if _, err := os.Stat(cfg.DB); err == nil {
				return fmt.Errorf("database file %s already exists", cfg.DB)
			}

			database, password, err := initDatabase(cmd.Context(), cfg.DB, cfg.AdminUser)
			if err != nil {
				return err
			}
			database.Close()

			printInitResult(cfg.DB, cfg.AdminUser, password)
			return nil
		},
	}
	cmd.Flags().StringP("admin-user", "u", "admin", "admin username")
	return cmd
}

func newMigrateCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema changes to an existing database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			if _, err := os.Stat(cfg.DB); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("database file %s does not exist (run init first)", cfg.DB)
			}

			database, err := db.Open(cfg.DB)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.Migrate(database); err != nil {
				return err
			}
			fmt.Printf("Database migrated: %s\n", cfg.DB)
			return nil
		},
	}
}

// initDatabase creates a new database, applies the schema and creates the
// admin user. The file is removed again if any step fails.
func initDatabase(ctx context.Context, path, adminUsername string) (_ *sql.DB, _ string, err error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err != nil {
			database.Close()
			os.Remove(path)
		}
	}()

	if err := db.Migrate(database); err != nil {
		return nil, "", err
	}

	password, err := generatePassword(adminPasswordLength)
	if err != nil {
		return nil, "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	if _, err := store.CreateUser(ctx, database, adminUsername, string(hash), model.RoleAdmin); err != nil {
		return nil, "", fmt.Errorf("creating admin user: %w", err)
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
