package models

import "time"

// User represents an admin/editor account. Passwords are stored as bcrypt
// hashes, never in plain text.
type User struct {
	ID           int        `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Email        string     `json:"email" db:"email" gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email"`
	PasswordHash string     `json:"-" db:"password_hash" gorm:"type:varchar(255);not null"`
	Name         string     `json:"name" db:"name" gorm:"type:varchar(200)"`
	Role         string     `json:"role" db:"role" gorm:"type:varchar(20);default:editor"`
	IsActive     bool       `json:"is_active" db:"is_active" gorm:"not null;default:true;index:idx_users_active"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at" gorm:"not null;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// UserPublic is the shape returned to the boundary layer after login.
type UserPublic struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u *User) Public() UserPublic {
	return UserPublic{ID: u.ID, Email: u.Email, Name: u.Name}
}
