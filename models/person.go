package models

import "time"

type Person struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`

	AvatarKey *string `json:"-"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}
