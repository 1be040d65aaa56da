package repository

import "github.com/opmetrack/opme-control/internal/domain/entity"

// UserRepository define a porta de persistência de usuários.
type UserRepository interface {
	Create(user *entity.User) error
	GetByEmail(email string) (*entity.User, error)
	GetByID(id string) (*entity.User, error)
}
