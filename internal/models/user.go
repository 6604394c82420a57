package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultRole is granted to every account created through signup.
const DefaultRole = "ROLE_USER"

// User represents an account in the system
type User struct {
	BaseModel
	Username  string     `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Email     string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string     `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	FirstName string     `gorm:"size:100" json:"firstName"`
	LastName  string     `gorm:"size:100" json:"lastName"`
	Phone     string     `gorm:"size:50" json:"phone,omitempty"`
	Roles     []string   `gorm:"type:text;serializer:json" json:"roles"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`

	// Relations (not always preloaded)
	SentMessages     []Message `gorm:"foreignKey:SenderID" json:"-"`
	ReceivedMessages []Message `gorm:"foreignKey:ReceiverID" json:"-"`
}

// UserSummary is the public directory entry for a user.
type UserSummary struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// UserProfile is the full view a user gets of their own account.
type UserProfile struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Phone     string     `json:"phone"`
	Roles     []string   `json:"roles"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Summary strips the user down to the fields other users may see.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// Profile returns the owner's view of the account, excluding the password hash.
func (u *User) Profile() UserProfile {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserProfile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Roles:     roles,
		LastLogin: u.LastLogin,
	}
}
