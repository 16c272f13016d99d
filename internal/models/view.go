package models

import "time"

// BasicUser — минимальное представление пользователя для посторонних.
type BasicUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DetailedUser — полное представление пользователя.
// Пароль в представление не попадает никогда.
type DetailedUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Groups       []string  `json:"groups"`
	Subscription string    `json:"subscription"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`
}

// Basic строит минимальное представление пользователя.
func (u *User) Basic() BasicUser {
	return BasicUser{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// Detailed строит полное представление пользователя.
func (u *User) Detailed() DetailedUser {
	groups := make([]string, len(u.Groups))
	copy(groups, u.Groups)
	return DetailedUser{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Groups:       groups,
		Subscription: u.Subscription,
		Created:      u.Created,
		Updated:      u.Updated,
	}
}
