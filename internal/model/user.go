package model

import "time"

type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	ProfileImageURL string    `json:"profile_image_url"`
	PasswordHash    string    `json:"-"`
	IsSuperuser     bool      `json:"is_superuser"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type UserDetails struct {
	Name            string `json:"name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profile_image_url"`
}

func (u User) Details() UserDetails {
	return UserDetails{
		Name:            u.Name,
		Username:        u.Username,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
	}
}
