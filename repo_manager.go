package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Admins() Admins
	OtpCodes() OtpCodes
}

type mngr struct {
	db       *bun.DB
	users    Users
	admins   Admins
	otpCodes OtpCodes
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:       db,
		users:    NewUsersRepository(db),
		admins:   NewAdminsRepository(db),
		otpCodes: NewOtpCodesRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.admins == nil {
		return errors.New("repository admins should be initialized")
	}

	if m.otpCodes == nil {
		return errors.New("repository otpCodes should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Admins() Admins {
	return m.admins
}

func (m mngr) OtpCodes() OtpCodes {
	return m.otpCodes
}
