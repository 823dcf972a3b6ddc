package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/grademind/grademind-api/internal/core/domain"
	"github.com/grademind/grademind-api/internal/core/ports"
)

const uniqueViolation = "23505"

const userColumns = `id, email, username, hashed_password, user_role, is_active, is_verified,
	is_superuser, created_at, fullname, notelp, nrp, institution, biografi, profile_picture`

// constraintFields maps unique constraints to the field they guard.
var constraintFields = map[string]string{
	"users_email_key":    "email",
	"users_username_key": "username",
	"users_nrp_key":      "nrp",
}

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

var _ ports.UserRepository = (*UserRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u                                         domain.User
		role                                      string
		phone, nrp, institution, bio, profilePict sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &role, &u.IsActive, &u.IsVerified,
		&u.IsSuperuser, &u.CreatedAt, &u.Fullname, &phone, &nrp, &institution, &bio, &profilePict)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.Phone = phone.String
	u.NRP = nrp.String
	u.Institution = institution.String
	u.Biography = bio.String
	u.ProfilePicture = profilePict.String
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (email, username, hashed_password, user_role, is_active, is_verified,
			is_superuser, created_at, fullname, notelp, nrp, institution, biografi, profile_picture)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, string(user.Role), user.IsActive, user.IsVerified,
		user.IsSuperuser, user.CreatedAt, user.Fullname, nullString(user.Phone), nullString(user.NRP),
		nullString(user.Institution), nullString(user.Biography), nullString(user.ProfilePicture)))
	if err != nil {
		return nil, translateError(err, "insert user")
	}
	return created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = $1", email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username = $1", username)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `UPDATE users SET email = $2, username = $3, hashed_password = $4, fullname = $5,
			notelp = $6, nrp = $7, institution = $8, biografi = $9, profile_picture = $10,
			is_active = $11, is_verified = $12, is_superuser = $13
		WHERE id = $1
		RETURNING ` + userColumns

	updated, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.Fullname,
		nullString(user.Phone), nullString(user.NRP), nullString(user.Institution),
		nullString(user.Biography), nullString(user.ProfilePicture),
		user.IsActive, user.IsVerified, user.IsSuperuser))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, translateError(err, "update user")
	}
	return updated, nil
}

func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectRow(res, domain.ErrUserNotFound)
}

// Delete removes the user; sessions go with it through ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectRow(res, domain.ErrUserNotFound)
}

func (r *UserRepository) List(ctx context.Context, f ports.UserListFilter) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE ($1::text IS NULL OR user_role = $1)
		ORDER BY id
		OFFSET $2 LIMIT $3`

	var role sql.NullString
	if f.Role != nil {
		role = sql.NullString{String: string(*f.Role), Valid: true}
	}
	limit := sql.NullInt64{Int64: int64(f.Limit), Valid: f.Limit > 0}

	rows, err := r.db.QueryContext(ctx, query, role, f.Skip, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// translateError maps a unique violation to the field its constraint guards.
func translateError(err error, op string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return fmt.Errorf("%s: %w", op, err)
	}
	if field, ok := constraintFields[pgErr.ConstraintName]; ok {
		return &domain.AlreadyExistsError{Field: field}
	}
	return domain.ErrStorageConflict
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
