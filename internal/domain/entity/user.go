package entity

import "time"

// User usuário da aplicação (autenticação por email/senha).
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // hash bcrypt, nunca em claro depois de persistido
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
