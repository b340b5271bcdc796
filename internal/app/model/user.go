package model

import (
	"time"
)

type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`                          // user id
	Username     string     `gorm:"size:150;uniqueIndex;not null" json:"username"` // login name
	Email        string     `gorm:"size:254" json:"email"`                         // optional contact address
	PasswordHash string     `gorm:"not null" json:"-"`                             // bcrypt hash
	FirstName    string     `gorm:"size:150" json:"first_name"`
	LastName     string     `gorm:"size:150" json:"last_name"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	IsStaff      bool       `gorm:"not null;default:false" json:"is_staff"` // site administrator
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"date_joined"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Groups []Group `gorm:"many2many:user_groups;constraint:OnDelete:CASCADE" json:"-"` // role groups
	Cart   *Cart   `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// GroupNames returns the names of the loaded groups
func (u *User) GroupNames() []string {
	names := make([]string, 0, len(u.Groups))
	for _, g := range u.Groups {
		names = append(names, g.Name)
	}
	return names
}

// InGroup checks membership against the loaded groups
func (u *User) InGroup(name string) bool {
	for _, g := range u.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}
