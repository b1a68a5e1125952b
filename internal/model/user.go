package model

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	BaseModel
	Email       string   `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password    string   `gorm:"size:255;not null" json:"-"`
	DisplayName string   `gorm:"size:100;not null" json:"displayName"`
	Role        UserRole `gorm:"size:20;default:user" json:"role"`
	PhotoURL    string   `gorm:"size:512" json:"photoUrl"`

	// Links shown on the public profile page.
	TwitterURL   string `gorm:"size:255" json:"twitterUrl"`
	InstagramURL string `gorm:"size:255" json:"instagramUrl"`
	GithubURL    string `gorm:"size:255" json:"githubUrl"`

	LastLoginAt *time.Time `json:"lastLoginAt"`
}

func (User) TableName() string {
	return "users"
}
