package domain

import "time"

// User 用户
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // bcrypt，永不输出
	CreatedAt    time.Time `json:"created_at"`
}
