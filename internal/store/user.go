package store

import (
	"context"

	"appointment-scheduler/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name) VALUES ($1,$2,$3,$4)`,
		u.ID, u.Email, u.PasswordHash, u.Name,
	)
	return translate(err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.userWhere(ctx, `lower(email) = lower($1)`, email)
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	return s.userWhere(ctx, `id = $1`, id)
}

func (s *Store) userWhere(ctx context.Context, cond string, arg any) (*model.User, error) {
	u := &model.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, name, created_at, updated_at
		 FROM users WHERE `+cond, arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}
