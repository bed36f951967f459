package sqlxrepos

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/qwaszx001001/byzantium/core"
	"github.com/qwaszx001001/byzantium/core/user"
)

const usersTable = "users"

var userColumns = []string{"id", "username", "email", "password_hash", "full_name", "role", "created_at", "updated_at"}

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	b := psql.Select("username", "email").From(usersTable).
		Where(sq.Or{sq.Eq{"username": username}, sq.Eq{"email": email}})
	if len(excludedUsers) > 0 {
		ids := make([]int, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		b = b.Where(sq.NotEq{"id": ids})
	}
	q, args, err := toSQL(b, "building uniqueness query")
	if err != nil {
		return err
	}

	var taken []user.User
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &taken, q, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, u := range taken {
		if u.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(taken) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q, args, err := toSQL(psql.Insert(usersTable).
		Columns("username", "email", "password_hash", "full_name", "role", "created_at", "updated_at").
		Values(usr.Username, usr.Email, usr.PasswordHash, usr.FullName, usr.Role, usr.CreatedAt, usr.UpdatedAt).
		Suffix("RETURNING "+strings.Join(userColumns, ", ")), "building user insert")
	if err != nil {
		return user.User{}, err
	}

	var created user.User
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &created, q, args...); err != nil {
		if constraint, ok := constraintViolation(err, uniqueViolation); ok {
			if strings.Contains(constraint, "email") {
				return user.User{}, user.ErrEmailExists
			}
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return created, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	b := psql.Select(userColumns...).From(usersTable)
	switch {
	case filter.ID != 0:
		b = b.Where(sq.Eq{"id": filter.ID})
	case filter.UsernameOrEmail != "":
		b = b.Where(sq.Or{sq.Eq{"username": filter.UsernameOrEmail}, sq.Eq{"email": filter.UsernameOrEmail}})
	default:
		return user.User{}, user.ErrNotFound
	}
	q, args, err := toSQL(b.Limit(1), "building user query")
	if err != nil {
		return user.User{}, err
	}

	var usr user.User
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &usr, q, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	b := psql.Update(usersTable).
		Set("username", usr.Username).
		Set("email", usr.Email).
		Set("full_name", usr.FullName).
		Set("updated_at", usr.UpdatedAt).
		Where(sq.Eq{"id": usr.ID}).
		Suffix("RETURNING " + strings.Join(userColumns, ", "))
	if usr.Role != "" {
		b = b.Set("role", usr.Role)
	}
	if usr.PasswordHash != nil {
		b = b.Set("password_hash", usr.PasswordHash)
	}
	q, args, err := toSQL(b, "building user update")
	if err != nil {
		return user.User{}, err
	}

	var updated user.User
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &updated, q, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "updating user")
	}
	return updated, nil
}
