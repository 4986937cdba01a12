package auth

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Admins interface {
	repository.Repository[*Admin]

	Create(ctx context.Context, record *Admin, criteria ...repository.InsertCriteria) (*Admin, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Admin, criteria ...repository.InsertCriteria) (*Admin, error)

	GetByUserID(ctx context.Context, userID uuid.UUID) (*Admin, error)
	GetByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Admin, error)

	ListExcept(ctx context.Context, exceptUserID uuid.UUID) ([]*Admin, error)
}

type admins struct {
	repository.Repository[*Admin]
	db *bun.DB
}

var (
	_ Admins                        = (*admins)(nil)
	_ repository.Repository[*Admin] = (*admins)(nil)
)

func NewAdminsRepository(db *bun.DB) Admins {
	repo := repository.NewRepository[*Admin](db, repository.ModelHandlers[*Admin]{
		NewRecord: func() *Admin { return &Admin{} },
		GetID: func(a *Admin) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Admin, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	return &admins{
		Repository: repo,
		db:         db,
	}
}

func (a *admins) Create(ctx context.Context, record *Admin, criteria ...repository.InsertCriteria) (*Admin, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *admins) CreateTx(ctx context.Context, tx bun.IDB, record *Admin, criteria ...repository.InsertCriteria) (*Admin, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *admins) GetByUserID(ctx context.Context, userID uuid.UUID) (*Admin, error) {
	return a.GetByUserIDTx(ctx, a.db, userID)
}

func (a *admins) GetByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Admin, error) {
	record := &Admin{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) || stderrors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": userID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

// ListExcept returns admin profiles with their users loaded, optionally
// excluding the caller's own profile.
func (a *admins) ListExcept(ctx context.Context, exceptUserID uuid.UUID) ([]*Admin, error) {
	var records []*Admin
	q := a.db.NewSelect().
		Model(&records).
		Relation("User").
		Order("adm.created_at ASC")

	if exceptUserID != uuid.Nil {
		q = q.Where("?TableAlias.user_id != ?", exceptUserID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}
