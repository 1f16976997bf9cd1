package usergraph

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Follows persists directed follow edges. Existence is always answered from
// the followee's follower set, which is the authoritative side.
type Follows interface {
	Exists(ctx context.Context, followeeID, followerID uuid.UUID) (bool, error)
	ExistsTx(ctx context.Context, tx bun.IDB, followeeID, followerID uuid.UUID) (bool, error)

	CreateTx(ctx context.Context, tx bun.IDB, followerID, followeeID uuid.UUID) error
	DeleteTx(ctx context.Context, tx bun.IDB, followerID, followeeID uuid.UUID) error

	// FollowersOf lists the users following userID.
	FollowersOf(ctx context.Context, userID uuid.UUID) ([]*User, error)
	// SubscriptionsOf lists the users that userID follows.
	SubscriptionsOf(ctx context.Context, userID uuid.UUID) ([]*User, error)
}

type follows struct {
	db *bun.DB
}

var _ Follows = (*follows)(nil)

func NewFollowsRepository(db *bun.DB) Follows {
	return &follows{db: db}
}

func (f *follows) Exists(ctx context.Context, followeeID, followerID uuid.UUID) (bool, error) {
	return f.ExistsTx(ctx, f.db, followeeID, followerID)
}

func (f *follows) ExistsTx(ctx context.Context, tx bun.IDB, followeeID, followerID uuid.UUID) (bool, error) {
	return tx.NewSelect().
		Model((*Follow)(nil)).
		Where("?TableAlias.followee_id = ?", followeeID).
		Where("?TableAlias.follower_id = ?", followerID).
		Exists(ctx)
}

func (f *follows) CreateTx(ctx context.Context, tx bun.IDB, followerID, followeeID uuid.UUID) error {
	edge := &Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
	}

	_, err := tx.NewInsert().Model(edge).Exec(ctx)
	return err
}

func (f *follows) DeleteTx(ctx context.Context, tx bun.IDB, followerID, followeeID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*Follow)(nil)).
		Where("?TableAlias.follower_id = ?", followerID).
		Where("?TableAlias.followee_id = ?", followeeID).
		Exec(ctx)

	return err
}

func (f *follows) FollowersOf(ctx context.Context, userID uuid.UUID) ([]*User, error) {
	var records []*User
	err := f.db.NewSelect().
		Model(&records).
		Join(`JOIN follows AS fol ON fol.follower_id = usr.id`).
		Where("fol.followee_id = ?", userID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (f *follows) SubscriptionsOf(ctx context.Context, userID uuid.UUID) ([]*User, error) {
	var records []*User
	err := f.db.NewSelect().
		Model(&records).
		Join(`JOIN follows AS fol ON fol.followee_id = usr.id`).
		Where("fol.follower_id = ?", userID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}
