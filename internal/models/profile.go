package models

import "time"

type Profile struct {
	UserID      string    `bson:"_id" json:"user_id"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	Email       string    `bson:"email" json:"email"`
	University  string    `bson:"university,omitempty" json:"university,omitempty"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
