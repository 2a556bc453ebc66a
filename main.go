package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
	"golang.org/x/term"

	"fastmemo/auth"
	"fastmemo/config"
	"fastmemo/database"
	"fastmemo/mailer"
	"fastmemo/models"
	"fastmemo/server"
	"fastmemo/service"
	"fastmemo/store"
)

func main() {
	commandFlag := flag.String("command", "start", "Command to run: start, migrate, create-migration, create-admin")
	envFlag := flag.String("env", ".env", "Path to an optional .env file")
	nameFlag := flag.String("name", "", "Migration name (create-migration) or admin name (create-admin)")
	emailFlag := flag.String("email", "", "Admin email (create-admin)")
	flag.Parse()

	if *commandFlag == "" {
		fmt.Println("Usage: go run main.go -command <command-name> [... other options]")
		os.Exit(1)
	}

	cfg, err := config.Load(*envFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		os.Exit(1)
	}

	server.InitLogger()

	switch *commandFlag {
	case "start":
		server.StartServer(cfg)
	case "migrate":
		dbConn := database.InitializeDatabase(context.Background(), cfg)
		defer dbConn.Close()
		version, err := database.Version(context.Background(), dbConn)
		if err != nil {
			logger.Error("Failed to read schema version", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("Schema is up to date", zap.Int64("version", version))
	case "create-migration":
		path, err := database.CreateMigration(cfg.DBDriver, *nameFlag)
		if err != nil {
			logger.Error("Failed to create migration", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("Migration created", zap.String("dir", path))
	case "create-admin":
		if err := createAdmin(cfg, *nameFlag, *emailFlag); err != nil {
			logger.Error("Failed to create admin", zap.Error(err))
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", *commandFlag)
		os.Exit(1)
	}
}

// createAdmin adds an admin account, reading the password from the
// terminal.
func createAdmin(cfg *config.Config, name, email string) error {
	if name == "" || email == "" {
		return fmt.Errorf("-name and -email are required")
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	ctx := context.Background()
	dbConn := database.InitializeDatabase(ctx, cfg)
	defer dbConn.Close()

	users := store.NewUserStore(dbConn)
	authSvc := service.NewAuthService(
		users,
		auth.NewHasher(cfg.BcryptCost),
		auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiresIn, cfg.JWTCookieExpiresIn, cfg.IsProduction()),
		mailer.Log{},
		cfg.PasswordResetTTL,
	)

	admin, err := service.NewUserService(users, authSvc).Create(ctx, models.SignupRequest{
		Name:            name,
		Email:           email,
		Password:        string(password),
		PasswordConfirm: string(confirm),
		Role:            models.RoleAdmin,
	})
	if err != nil {
		return err
	}

	logger.Info("Admin created", zap.String("user_id", admin.ID), zap.String("email", admin.Email))
	return nil
}
