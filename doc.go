// Package usergraph implements session-token authentication over a directed
// follow graph between users.
//
// Session lifecycle:
//   - SessionManager orchestrates register, activate, login, refresh, and
//     logout. Every successful login or refresh mints a fresh TokenPair and
//     overwrites the single stored refresh credential for that user, so at
//     most one refresh credential is valid per account at any time.
//   - TokenService signs the access and refresh credentials with two
//     domain-separated HS256 keys; validating one kind never accepts the
//     other.
//
// Follow graph:
//   - Graph applies subscribe and unsubscribe as a single transactional edge
//     write. Edge existence is always answered from the followee's follower
//     set so the two sides of the relationship cannot drift apart.
//
// Persistence goes through RepositoryManager (Bun repositories for users,
// refresh tokens, and follow edges). Password hashing and activation mail
// delivery are capability interfaces so tests can substitute deterministic
// stand-ins.
package usergraph
