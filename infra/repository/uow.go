package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amirasaad/gastos/infra/repository/account"
	"github.com/amirasaad/gastos/infra/repository/activity"
	"github.com/amirasaad/gastos/infra/repository/credential"
	"github.com/amirasaad/gastos/infra/repository/movement"
	"github.com/amirasaad/gastos/infra/repository/session"
	"github.com/amirasaad/gastos/infra/repository/tag"
	"github.com/amirasaad/gastos/infra/repository/user"
	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	activityrepo "github.com/amirasaad/gastos/pkg/repository/activity"
	credentialrepo "github.com/amirasaad/gastos/pkg/repository/credential"
	movementrepo "github.com/amirasaad/gastos/pkg/repository/movement"
	sessionrepo "github.com/amirasaad/gastos/pkg/repository/session"
	tagrepo "github.com/amirasaad/gastos/pkg/repository/tag"
	userrepo "github.com/amirasaad/gastos/pkg/repository/user"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// All repositories handed out inside Do share the transaction's session.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			repository.TypeOf[userrepo.Repository]():                 func(db *gorm.DB) any { return user.New(db) },
			repository.TypeOf[accountrepo.Repository]():              func(db *gorm.DB) any { return account.New(db) },
			repository.TypeOf[movementrepo.Repository]():             func(db *gorm.DB) any { return movement.New(db) },
			repository.TypeOf[tagrepo.Repository]():                  func(db *gorm.DB) any { return tag.New(db) },
			repository.TypeOf[sessionrepo.Repository]():              func(db *gorm.DB) any { return session.New(db) },
			repository.TypeOf[credentialrepo.TwoFactorRepository]():  func(db *gorm.DB) any { return credential.NewTwoFactor(db) },
			repository.TypeOf[credentialrepo.ResetTokenRepository](): func(db *gorm.DB) any { return credential.NewResetToken(db) },
			repository.TypeOf[credentialrepo.APITokenRepository]():   func(db *gorm.DB) any { return credential.NewAPIToken(db) },
			repository.TypeOf[activityrepo.Repository]():             func(db *gorm.DB) any { return activity.New(db) },
		},
	}
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
}

// GetRepository returns the repository registered for repoType, bound to the
// current transaction, or to the plain connection outside Do.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	session := u.tx
	if session == nil {
		session = u.db
	}
	return constructor(session), nil
}

// Models lists every gorm model in dependency order, for AutoMigrate.
func Models() []any {
	return []any{
		&user.User{},
		&tag.Tag{},
		&account.Account{},
		&movement.Movement{},
		&session.Session{},
		&credential.TwoFactorCode{},
		&credential.ResetToken{},
		&credential.APIToken{},
		&activity.Entry{},
	}
}
