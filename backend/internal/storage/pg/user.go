package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	"github.com/lib/pq"
)

// Group ids seeded by the schema.
const (
	GroupAdmin  = 1
	GroupGuest  = 2
	GroupMember = 3
	GroupMod    = 4
)

// =========================================================================
// Public Methods
// =========================================================================

// CreateUser inserts a registered user and puts it in the given extra groups.
// Every registered user is a member implicitly.
func (s *Storage) CreateUser(ctx context.Context, user domain.User, groups ...int) (domain.UserId, error) {
	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.createUser(tx, user, groups)
		return err
	})
	return id, err
}

// UserIdByUsername resolves a username. Unknown users are NotFound.
func (s *Storage) UserIdByUsername(ctx context.Context, username domain.Username) (domain.UserId, error) {
	var id domain.UserId
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE lower(username) = lower($1)`, username).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, internal_errors.NotFound("User not found")
		}
		return 0, fmt.Errorf("failed to query user %q: %w", username, err)
	}
	return id, nil
}

// GetActor loads a registered user with the union of its group permissions.
func (s *Storage) GetActor(ctx context.Context, id domain.UserId) (*domain.User, error) {
	return s.actor(s.db, id)
}

// GuestPermissions returns the permissions of the guest group.
func (s *Storage) GuestPermissions(ctx context.Context) (domain.Permissions, error) {
	return s.groupPermissions(s.db, GroupGuest)
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) createUser(q Querier, user domain.User, groups []int) (domain.UserId, error) {
	var id domain.UserId
	err := q.QueryRow("INSERT INTO users(username, email, is_admin) VALUES($1, $2, $3) RETURNING id",
		user.Username, user.Email, user.Admin).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, internal_errors.Validation("Username or email already taken")
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	for _, group := range groups {
		if _, err := q.Exec("INSERT INTO users_groups(user_id, group_id) VALUES($1, $2) ON CONFLICT DO NOTHING", id, group); err != nil {
			return 0, fmt.Errorf("failed to add user %d to group %d: %w", id, group, err)
		}
	}
	return id, nil
}

func (s *Storage) actor(q Querier, id domain.UserId) (*domain.User, error) {
	user := &domain.User{}
	var inAdminGroup bool
	err := q.QueryRow(`
		SELECT id, username, email, is_admin, read_time, created_at,
			EXISTS(SELECT 1 FROM users_groups WHERE user_id = users.id AND group_id = $2)
		FROM users WHERE id = $1
	`, id, GroupAdmin).Scan(&user.Id, &user.Username, &user.Email, &user.Admin, &user.ReadTime, &user.CreatedAt, &inAdminGroup)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to query user %d: %w", id, err)
	}

	user.Admin = user.Admin || inAdminGroup

	err = q.QueryRow(`
		SELECT COALESCE(array_agg(DISTINCT permission ORDER BY permission), '{}')
		FROM group_permissions
		WHERE group_id = $2
			OR group_id IN (SELECT group_id FROM users_groups WHERE user_id = $1)
	`, id, GroupMember).Scan(&user.Permissions)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions of user %d: %w", id, err)
	}
	return user, nil
}

func (s *Storage) groupPermissions(q Querier, group int) (domain.Permissions, error) {
	var permissions domain.Permissions
	err := q.QueryRow(`
		SELECT COALESCE(array_agg(permission ORDER BY permission), '{}')
		FROM group_permissions WHERE group_id = $1
	`, group).Scan(&permissions)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions of group %d: %w", group, err)
	}
	return permissions, nil
}
