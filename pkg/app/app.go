// Package app wires the services of the application from its
// infrastructure dependencies.
package app

import (
	"log/slog"

	"github.com/amirasaad/gastos/pkg/config"
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/mailer"
	"github.com/amirasaad/gastos/pkg/repository"
	accountsvc "github.com/amirasaad/gastos/pkg/service/account"
	"github.com/amirasaad/gastos/pkg/service/admin"
	"github.com/amirasaad/gastos/pkg/service/audit"
	"github.com/amirasaad/gastos/pkg/service/auth"
	"github.com/amirasaad/gastos/pkg/service/backup"
	"github.com/amirasaad/gastos/pkg/service/ledger"
	"github.com/amirasaad/gastos/pkg/service/maintenance"
	"github.com/amirasaad/gastos/pkg/service/tag"
	"github.com/amirasaad/gastos/pkg/service/user"
	"github.com/amirasaad/gastos/pkg/storage"
	"github.com/gofiber/fiber/v2"
)

// Deps contains the infrastructure the services are built on.
type Deps struct {
	Uow    repository.UnitOfWork
	Store  storage.Store
	Mailer mailer.Mailer
	// LimiterStorage backs the HTTP rate limiters. Nil keeps the counters in memory.
	LimiterStorage fiber.Storage
	Logger         *slog.Logger
}

type App struct {
	Deps               *Deps
	Config             *config.App
	Audit              *audit.Recorder
	Ledger             *ledger.Service
	AuthService        *auth.Service
	UserService        *user.Service
	AccountService     *accountsvc.Service
	BackupService      *backup.Service
	AdminService       *admin.Service
	TagService         *tag.Service
	MaintenanceService *maintenance.Service
}

// New builds every service. It fails only on an invalid ledger policy.
func New(deps *Deps, cfg *config.App) (*App, error) {
	policy, err := account.NewPolicy(cfg.Ledger.OverdraftKinds...)
	if err != nil {
		return nil, err
	}
	app := &App{
		Deps:   deps,
		Config: cfg,
		Audit:  audit.New(deps.Uow, deps.Logger),
	}
	app.Ledger = ledger.New(deps.Uow, deps.Store, app.Audit, policy, deps.Logger)
	app.AuthService = auth.New(deps.Uow, deps.Mailer, app.Audit, cfg.Auth, cfg.Mail.BaseURL, deps.Logger)
	app.UserService = user.New(deps.Uow, deps.Store, app.Audit, deps.Logger)
	app.AccountService = accountsvc.New(deps.Uow, app.Ledger, app.Audit, deps.Logger)
	app.BackupService = backup.New(deps.Uow, app.Ledger, deps.Store, app.Audit, deps.Logger)
	app.AdminService = admin.New(deps.Uow, app.UserService, app.Ledger, app.Audit, deps.Logger)
	app.TagService = tag.New(deps.Uow, app.Audit, deps.Logger)
	app.MaintenanceService = maintenance.New(deps.Uow, app.UserService, deps.Mailer, app.Audit, cfg.Mail.BaseURL, deps.Logger)
	return app, nil
}
