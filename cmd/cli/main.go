package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/amirasaad/gastos/infra"
	"github.com/amirasaad/gastos/infra/initializer"
	"github.com/amirasaad/gastos/pkg/app"
	"github.com/amirasaad/gastos/pkg/config"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const usage = `Usage: cli <command> [arguments]
Commands:
  create-owner <username> <email>   create the propietario account
  sweep                             run the retention and expiry sweep
  migrate up|down                   apply or revert the database schema`

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	errColor  = color.New(color.FgRed, color.Bold)
	infoColor = color.New(color.FgCyan)
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}
	cfg, err := config.Load(".env")
	if err != nil {
		fail("Failed to load configuration:", err)
	}

	ctx := context.Background()
	switch cmd := os.Args[1]; cmd {
	case "create-owner":
		if len(os.Args) < 4 {
			fmt.Println("Usage: create-owner <username> <email>")
			os.Exit(2)
		}
		err = createOwner(ctx, cfg, os.Args[2], os.Args[3])
	case "sweep":
		err = sweep(ctx, cfg)
	case "migrate":
		if len(os.Args) < 3 {
			fmt.Println("Usage: migrate up|down")
			os.Exit(2)
		}
		err = migrate(cfg, os.Args[2])
	default:
		fmt.Printf("Unknown command %q\n", cmd)
		fmt.Println(usage)
		os.Exit(2)
	}
	if err != nil {
		fail("Error:", err)
	}
}

func fail(msg string, err error) {
	_, _ = errColor.Fprintln(os.Stderr, msg, err)
	os.Exit(1)
}

func build(cfg *config.App) (*app.App, func(), error) {
	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(deps, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}

func createOwner(ctx context.Context, cfg *config.App, username, email string) error {
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword("Repeat password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	a, cleanup, err := build(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	owner, err := a.AuthService.CreateOwner(ctx, dto.Registration{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}
	_, _ = okColor.Printf("Owner %s created (id %s)\n", owner.Username, owner.ID)
	return nil
}

// readPassword reads without echo from a terminal and falls back to a
// plain line when stdin is piped.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

func sweep(ctx context.Context, cfg *config.App) error {
	a, cleanup, err := build(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := a.MaintenanceService.Sweep(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	_, _ = okColor.Println("Sweep finished")
	rows := []struct {
		label string
		value int64
	}{
		{"reminded", int64(report.Reminded)},
		{"warned", int64(report.Warned)},
		{"deleted", int64(report.Deleted)},
		{"failed", int64(report.Failed)},
		{"sessions", report.Sessions},
		{"codes", report.Codes},
		{"reset tokens", report.ResetTokens},
	}
	for _, r := range rows {
		_, _ = infoColor.Printf("  %-13s", r.label)
		fmt.Println(r.value)
	}
	if report.Failed > 0 {
		_, _ = errColor.Printf("%d users could not be processed, see the log\n", report.Failed)
	}
	return nil
}

func migrate(cfg *config.App, direction string) error {
	logger := initializer.SetupLogger(cfg.Log)
	db, err := initializer.OpenDatabase(cfg, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	switch direction {
	case "up":
		err = infra.Migrate(db)
	case "down":
		err = infra.MigrateDown(db)
	default:
		return fmt.Errorf("unknown direction %q, want up or down", direction)
	}
	if err != nil {
		return err
	}
	_, _ = okColor.Printf("Migrations %s applied\n", direction)
	return nil
}
