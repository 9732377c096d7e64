package models

import "time"

// Role is the access level of a user.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStandard || r == RoleAdmin
}

// User represents a user of the store.
type User struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" bson:"name" gorm:"type:varchar(100)"`
	Email     string    `json:"email" bson:"email" gorm:"uniqueIndex;type:varchar(255)"`
	Password  string    `json:"-" bson:"password" gorm:"type:varchar(255)"` // bcrypt hash
	Role      Role      `json:"role" bson:"role" gorm:"type:varchar(20)"`
	IsActive  bool      `json:"isActive" bson:"isActive"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
