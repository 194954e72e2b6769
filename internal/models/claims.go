package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims is the claim set carried by both access and refresh tokens.
// Subject is the user email; Roles mirrors the user's role list at issuance.
type UserClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

func (c *UserClaims) Email() string {
	return c.Subject
}

// HasRole checks if the claims include a specific role.
func (c *UserClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
