package service

import (
	"context"
	"time"

	"GroupChatAI/module/user/model"
	"GroupChatAI/service/storage"
	"GroupChatAI/tools/errs"
	security "GroupChatAI/tools/security"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// RegisterParams are the signup inputs.
type RegisterParams struct {
	Email    string
	Username string
	FullName string
	Password string
	Credits  float64 // starting balance
}

// Register creates an account with a bcrypt-hashed password.
func Register(ctx context.Context, in RegisterParams) (model.User, error) {
	var exists bool
	err := storage.PG().QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 OR username = $2)`,
		in.Email, in.Username).Scan(&exists)
	if err != nil {
		return model.User{}, errors.Wrap(err, "check existing user")
	}
	if exists {
		return model.User{}, errs.ErrUserExists
	}

	hashed, err := security.HashPassword(in.Password)
	if err != nil {
		return model.User{}, errors.Wrap(err, "hash password")
	}

	var u model.User
	err = storage.PG().QueryRow(ctx,
		`INSERT INTO users (email, username, full_name, hashed_password, credits)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, email, username, COALESCE(full_name,''), COALESCE(avatar_url,''),
		           is_active, credits, created_at, updated_at`,
		in.Email, in.Username, in.FullName, hashed, in.Credits,
	).Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.AvatarURL,
		&u.IsActive, &u.Credits, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, errors.Wrap(err, "insert user")
	}
	return u, nil
}

// Login checks the password and issues a token. The token's subject is the
// account id; the websocket gateway verifies the same tokens.
func Login(ctx context.Context, opts security.Options, email, password string) (model.User, string, time.Time, error) {
	u, err := GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return model.User{}, "", time.Time{}, errs.ErrBadCredentials
		}
		return model.User{}, "", time.Time{}, err
	}
	if !u.IsActive || !security.CheckPassword(u.HashedPassword, password) {
		return model.User{}, "", time.Time{}, errs.ErrBadCredentials
	}

	token, exp, err := security.Generate(opts, u.ID)
	if err != nil {
		return model.User{}, "", time.Time{}, errors.Wrap(err, "issue token")
	}

	now := time.Now()
	if _, err := storage.PG().Exec(ctx,
		`UPDATE users SET last_login = $1 WHERE id = $2`, now, u.ID); err != nil {
		return model.User{}, "", time.Time{}, errors.Wrap(err, "update last_login")
	}
	u.LastLogin = &now
	return u, token, exp, nil
}

const userColumns = `id, email, username, COALESCE(full_name,''), COALESCE(hashed_password,''),
	COALESCE(avatar_url,''), is_active, credits, created_at, updated_at, last_login`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.HashedPassword,
		&u.AvatarURL, &u.IsActive, &u.Credits, &u.CreatedAt, &u.UpdatedAt, &u.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, errs.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, errors.Wrap(err, "scan user")
	}
	return u, nil
}

func GetByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(storage.PG().QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(storage.PG().QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}
