package usergraph

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is a role tag attached to a user record.
type UserRole = string

const (
	// RoleUser is the default role assigned at registration.
	RoleUser UserRole = "user"
	// RoleAdmin marks administrative accounts.
	RoleAdmin UserRole = "admin"
)

// User is the user model. Follower and subscription sets are materialized
// through the follows join table; they must only be mutated through Graph.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username        string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email           string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash    string     `bun:"password_hash,notnull" json:"-"`
	IsActivated     bool       `bun:"is_activated" json:"is_activated"`
	ActivationToken string     `bun:"activation_token,nullzero" json:"-"`
	Roles           []UserRole `bun:"roles" json:"roles,omitempty"`

	Followers     []*User `bun:"m2m:follows,join:Followee=Follower" json:"followers,omitempty"`
	Subscriptions []*User `bun:"m2m:follows,join:Follower=Followee" json:"subscriptions,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasRole reports whether the user carries the given role tag.
func (u *User) HasRole(role UserRole) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RefreshToken maps a user to its single active refresh credential.
// The unique constraint on user_id is what enforces "at most one valid
// refresh credential per user": a new login or refresh upserts the row,
// implicitly invalidating the prior value.
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rtk"`

	ID     uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID uuid.UUID `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	User   *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Token  string    `bun:"token,notnull" json:"-"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Follow is a directed edge: follower subscribes to followee. A single row
// backs both the follower's subscription set and the followee's follower
// set, so the edge cannot be half-written.
type Follow struct {
	bun.BaseModel `bun:"table:follows,alias:fol"`

	FollowerID uuid.UUID `bun:"follower_id,pk,type:uuid" json:"follower_id,omitempty"`
	FolloweeID uuid.UUID `bun:"followee_id,pk,type:uuid" json:"followee_id,omitempty"`
	Follower   *User     `bun:"rel:belongs-to,join:follower_id=id" json:"follower,omitempty"`
	Followee   *User     `bun:"rel:belongs-to,join:followee_id=id" json:"followee,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
