package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/notely/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反エラーコード。
const uniqueViolation = "23505"

const userColumns = `id, email, name, password_hash, google_id, picture, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
// email一意制約に違反した場合はErrDuplicateEmailを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, google_id, picture, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.GoogleID, user.Picture, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateName はユーザー名を更新する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) UpdateName(ctx context.Context, id, name string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`UPDATE users SET name = $2, updated_at = $3 WHERE id = $1
		 RETURNING `+userColumns,
		id, name, time.Now(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update user name: %w", err)
	}
	return user, nil
}

// LinkGoogleID はgoogle_idが未設定のユーザーにGoogleのユーザーIDを紐付ける。
// 既に紐付け済みの場合は既存の値を維持する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) LinkGoogleID(ctx context.Context, id, googleID string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`UPDATE users SET google_id = COALESCE(google_id, $2), updated_at = $3 WHERE id = $1
		 RETURNING `+userColumns,
		id, googleID, time.Now(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to link google id: %w", err)
	}
	return user, nil
}

// scanUser は1行をUserに読み込む。行が存在しない場合は(nil, nil)を返す。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var passwordHash, googleID, picture sql.NullString
	err := row.Scan(
		&user.ID, &user.Email, &user.Name,
		&passwordHash, &googleID, &picture,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user.PasswordHash = nullStringPtr(passwordHash)
	user.GoogleID = nullStringPtr(googleID)
	user.Picture = nullStringPtr(picture)
	return user, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
