package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Role names carried in user records and token claims.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

type User struct {
	gorm.Model
	Email    string         `gorm:"uniqueIndex;not null" json:"email"`
	Password string         `gorm:"not null" json:"-"`
	Roles    pq.StringArray `gorm:"type:text[];not null" json:"roles"`
	Cards    []Card         `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AddRole appends a role unless the user already holds it.
func (u *User) AddRole(role string) {
	if !u.HasRole(role) {
		u.Roles = append(u.Roles, role)
	}
}
