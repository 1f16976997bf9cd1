package usergraph

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens persists the single active refresh credential per user.
type RefreshTokens interface {
	// Save upserts the mapping for userID, replacing any prior value. The
	// overwrite is what invalidates old refresh credentials without a
	// blocklist.
	Save(ctx context.Context, userID uuid.UUID, token string) error
	SaveTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) error

	// Find returns the record owning a refresh value, or a not found error.
	Find(ctx context.Context, token string) (*RefreshToken, error)
	FindTx(ctx context.Context, tx bun.IDB, token string) (*RefreshToken, error)

	// Remove deletes the record matching the value. Removing an absent
	// value is not an error at this layer.
	Remove(ctx context.Context, token string) error
	RemoveTx(ctx context.Context, tx bun.IDB, token string) error
}

type refreshTokens struct {
	db *bun.DB
}

var _ RefreshTokens = (*refreshTokens)(nil)

func NewRefreshTokensRepository(db *bun.DB) RefreshTokens {
	return &refreshTokens{db: db}
}

func (r *refreshTokens) Save(ctx context.Context, userID uuid.UUID, token string) error {
	return r.SaveTx(ctx, r.db, userID, token)
}

func (r *refreshTokens) SaveTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) error {
	now := time.Now()
	record := &RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		CreatedAt: &now,
		UpdatedAt: &now,
	}

	_, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (user_id) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	return err
}

func (r *refreshTokens) Find(ctx context.Context, token string) (*RefreshToken, error) {
	return r.FindTx(ctx, r.db, token)
}

func (r *refreshTokens) FindTx(ctx context.Context, tx bun.IDB, token string) (*RefreshToken, error) {
	record := &RefreshToken{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (r *refreshTokens) Remove(ctx context.Context, token string) error {
	return r.RemoveTx(ctx, r.db, token)
}

func (r *refreshTokens) RemoveTx(ctx context.Context, tx bun.IDB, token string) error {
	_, err := tx.NewDelete().
		Model((*RefreshToken)(nil)).
		Where("?TableAlias.token = ?", token).
		Exec(ctx)

	return err
}
