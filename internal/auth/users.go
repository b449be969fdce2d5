package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrUserExists     = errors.New("username already taken")
	ErrUserNotFound   = errors.New("user not found")
)

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
}

// UserStore manages accounts in the users table.
type UserStore struct{ db *sql.DB }

func NewUserStore(db *sql.DB) *UserStore { return &UserStore{db: db} }

func (s *UserStore) Create(ctx context.Context, username, password, role string) (User, error) {
	if username == "" || password == "" {
		return User{}, ErrBadCredentials
	}
	if role == "" {
		role = RoleStudent
	}
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username=$1`, username).Scan(&one)
	if err == nil {
		return User{}, ErrUserExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return User{}, err
	}
	u := User{ID: uuid.NewString(), Username: username, Role: role, CreatedAt: time.Now().Unix()}
	_, err = s.db.ExecContext(ctx, `INSERT INTO users (id,username,pass_hash,role,created_at)
		VALUES ($1,$2,$3,$4,$5)`, u.ID, u.Username, string(hash), u.Role, u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *UserStore) Authenticate(ctx context.Context, username, password string) (User, error) {
	var u User
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id,username,pass_hash,role,created_at FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &hash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

func (s *UserStore) Get(ctx context.Context, id string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id,username,role,created_at FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%s: %w", id, ErrUserNotFound)
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// ChangePassword verifies the current password before writing the new hash.
func (s *UserStore) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return ErrBadCredentials
	}
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT pass_hash FROM users WHERE id=$1`, userID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", userID, ErrUserNotFound)
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)) != nil {
		return ErrBadCredentials
	}
	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET pass_hash=$1 WHERE id=$2`, string(newHash), userID)
	return err
}

// EnsureAdmin seeds the bootstrap admin account when it does not exist yet.
// passHash is a pre-computed bcrypt hash (never a plaintext password from the
// environment).
func (s *UserStore) EnsureAdmin(ctx context.Context, username, passHash string) error {
	if username == "" || passHash == "" {
		return nil
	}
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username=$1`, username).Scan(&one)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO users (id,username,pass_hash,role,created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		uuid.NewString(), username, passHash, RoleAdmin, time.Now().Unix())
	return err
}
