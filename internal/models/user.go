package models

import "time"

type User struct {
	ID           string     `gorm:"type:text;primaryKey" json:"id"`
	Name         string     `gorm:"type:text" json:"name"`
	Email        string     `gorm:"type:text;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"type:text" json:"password_hash"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
}

func (User) TableName() string {
	return "users"
}

// PublicUser is the user as shown to templates and API clients.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
