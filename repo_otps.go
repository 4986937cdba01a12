package auth

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type OtpCodes interface {
	repository.Repository[*OtpCode]

	CreateTx(ctx context.Context, tx bun.IDB, record *OtpCode, criteria ...repository.InsertCriteria) (*OtpCode, error)

	// InvalidateActiveTx demotes every unused code for (user, type) to
	// invalid. Run it in the same transaction as the insert of the
	// replacement code so no window exists with two unused codes.
	InvalidateActiveTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, typ OtpType) (int64, error)

	// FindValid matches a code on (user, value, type), status unused,
	// and an expiration strictly in the future.
	FindValid(ctx context.Context, userID uuid.UUID, value string, typ OtpType, now time.Time) (*OtpCode, error)
	FindValidTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, value string, typ OtpType, now time.Time) (*OtpCode, error)

	// MarkUsedTx transitions unused -> used. The status predicate makes
	// consumption first-wins under concurrent validation.
	MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	// SweepExpired bulk-invalidates stale unused codes. Idempotent.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

type otpCodes struct {
	repository.Repository[*OtpCode]
	db *bun.DB
}

var (
	_ OtpCodes                        = (*otpCodes)(nil)
	_ repository.Repository[*OtpCode] = (*otpCodes)(nil)
)

func NewOtpCodesRepository(db *bun.DB) OtpCodes {
	repo := repository.NewRepository[*OtpCode](db, repository.ModelHandlers[*OtpCode]{
		NewRecord: func() *OtpCode { return &OtpCode{} },
		GetID: func(c *OtpCode) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *OtpCode, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
	})

	return &otpCodes{
		Repository: repo,
		db:         db,
	}
}

func (o *otpCodes) CreateTx(ctx context.Context, tx bun.IDB, record *OtpCode, criteria ...repository.InsertCriteria) (*OtpCode, error) {
	prepareOtpDefaults(record)
	return o.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (o *otpCodes) InvalidateActiveTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, typ OtpType) (int64, error) {
	res, err := tx.NewUpdate().
		Model((*OtpCode)(nil)).
		Set("status = ?", OtpStatusInvalid).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("user_id = ?", userID).
		Where("type = ?", typ).
		Where("status = ?", OtpStatusUnused).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}

func (o *otpCodes) FindValid(ctx context.Context, userID uuid.UUID, value string, typ OtpType, now time.Time) (*OtpCode, error) {
	return o.FindValidTx(ctx, o.db, userID, value, typ, now)
}

func (o *otpCodes) FindValidTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, value string, typ OtpType, now time.Time) (*OtpCode, error) {
	record := &OtpCode{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.value = ?", value).
		Where("?TableAlias.type = ?", typ).
		Where("?TableAlias.status = ?", OtpStatusUnused).
		Where("?TableAlias.expiration_time > ?", now).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) || stderrors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": userID.String(),
					"type":    typ,
				})
		}
		return nil, err
	}

	return record, nil
}

func (o *otpCodes) MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewUpdate().
		Model((*OtpCode)(nil)).
		Set("status = ?", OtpStatusUsed).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Where("status = ?", OtpStatusUnused).
		Exec(ctx)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (o *otpCodes) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := o.db.NewUpdate().
		Model((*OtpCode)(nil)).
		Set("status = ?", OtpStatusInvalid).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("status = ?", OtpStatusUnused).
		Where("expiration_time <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}

func prepareOtpDefaults(record *OtpCode) {
	if record == nil {
		return
	}

	if record.Status == "" {
		record.Status = OtpStatusUnused
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
