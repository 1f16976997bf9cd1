package usergraph

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Graph applies subscribe and unsubscribe as validated, transactional edge
// updates over two user records. A single follows row backs both sides of
// the relationship, so a completed operation can never leave the follower's
// subscription set and the followee's follower set disagreeing.
type Graph struct {
	repo   RepositoryManager
	logger Logger
}

// GraphOption customizes a Graph.
type GraphOption func(*Graph)

// NewGraph returns a new Graph over the given repositories.
func NewGraph(repo RepositoryManager, opts ...GraphOption) *Graph {
	g := &Graph{
		repo:   repo,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// WithGraphLogger overrides the logger.
func WithGraphLogger(logger Logger) GraphOption {
	return func(g *Graph) {
		g.logger = logger
	}
}

// Subscribe adds a follow edge from the user with followerHandle to the
// user with followeeID. The existence check always runs against the
// followee's follower set, the single source of truth for the edge.
func (g *Graph) Subscribe(ctx context.Context, followerHandle string, followeeID uuid.UUID) error {
	follower, followee, err := g.resolvePair(ctx, followerHandle, followeeID)
	if err != nil {
		return err
	}

	if follower.ID == followee.ID {
		return ErrSelfFollow
	}

	err = g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, txErr := g.repo.Follows().ExistsTx(ctx, tx, followee.ID, follower.ID)
		if txErr != nil {
			return StoreFailure(txErr, "follows.exists")
		}
		if exists {
			return ErrAlreadyFollowing.Clone().WithMetadata(map[string]any{
				"followee": followee.Username,
			})
		}

		if txErr := g.repo.Follows().CreateTx(ctx, tx, follower.ID, followee.ID); txErr != nil {
			return StoreFailure(txErr, "follows.create")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return StoreFailure(err, "follows.subscribe_tx")
	}

	return nil
}

// Unsubscribe removes the follow edge. It fails with ErrNotFollowing when
// the followee's follower set does not contain the follower.
func (g *Graph) Unsubscribe(ctx context.Context, followerHandle string, followeeID uuid.UUID) error {
	follower, followee, err := g.resolvePair(ctx, followerHandle, followeeID)
	if err != nil {
		return err
	}

	err = g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, txErr := g.repo.Follows().ExistsTx(ctx, tx, followee.ID, follower.ID)
		if txErr != nil {
			return StoreFailure(txErr, "follows.exists")
		}
		if !exists {
			return ErrNotFollowing.Clone().WithMetadata(map[string]any{
				"followee": followee.Username,
			})
		}

		if txErr := g.repo.Follows().DeleteTx(ctx, tx, follower.ID, followee.ID); txErr != nil {
			return StoreFailure(txErr, "follows.delete")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return StoreFailure(err, "follows.unsubscribe_tx")
	}

	return nil
}

// Followers lists the users following the account with the given email.
func (g *Graph) Followers(ctx context.Context, email string) ([]*User, error) {
	user, err := g.getByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	records, err := g.repo.Follows().FollowersOf(ctx, user.ID)
	if err != nil {
		return nil, StoreFailure(err, "follows.followers_of")
	}

	return records, nil
}

// Subscriptions lists the users the account with the given email follows.
func (g *Graph) Subscriptions(ctx context.Context, email string) ([]*User, error) {
	user, err := g.getByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	records, err := g.repo.Follows().SubscriptionsOf(ctx, user.ID)
	if err != nil {
		return nil, StoreFailure(err, "follows.subscriptions_of")
	}

	return records, nil
}

func (g *Graph) resolvePair(ctx context.Context, followerHandle string, followeeID uuid.UUID) (*User, *User, error) {
	follower, err := g.repo.Users().GetByUsername(ctx, strings.TrimSpace(followerHandle))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil, ErrUserNotFound.Clone().WithMetadata(map[string]any{
				"username": followerHandle,
			})
		}
		return nil, nil, StoreFailure(err, "users.get_by_username")
	}

	followee, err := g.repo.Users().GetByID(ctx, followeeID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil, ErrUserNotFound.Clone().WithMetadata(map[string]any{
				"id": followeeID.String(),
			})
		}
		return nil, nil, StoreFailure(err, "users.get_by_id")
	}

	return follower, followee, nil
}

func (g *Graph) getByEmail(ctx context.Context, email string) (*User, error) {
	user, err := g.repo.Users().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound.Clone().WithMetadata(map[string]any{
				"email": email,
			})
		}
		return nil, StoreFailure(err, "users.get_by_email")
	}

	return user, nil
}
