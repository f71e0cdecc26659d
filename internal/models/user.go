package models

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

var KnownRoles = []string{RoleAdmin, RoleManager}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	Email        string    `gorm:"not null;uniqueIndex"          json:"email"`
	FirstName    string    `gorm:"not null"                      json:"firstName"`
	LastName     string    `gorm:"not null"                      json:"lastName"`
	PasswordHash string    `gorm:"not null"                      json:"-"`
	Roles        Roles     `gorm:"type:text;not null"            json:"roles"`
	MFASecret    *string   `gorm:"column:mfa_secret"             json:"-"`
	CreatedAt    time.Time `                                     json:"createdAt"`
	UpdatedAt    time.Time `                                     json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Roles == nil {
		u.Roles = Roles{}
	}
	return nil
}

func (User) TableName() string {
	return "users"
}

func (u *User) RequiresMFA() bool {
	return u.MFASecret != nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Roles is stored as a comma separated column.
type Roles []string

func (r Roles) Value() (driver.Value, error) {
	return strings.Join(r, ","), nil
}

func (r *Roles) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("roles: unsupported type %T", src)
	}

	out := Roles{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*r = out
	return nil
}

func (r Roles) Has(role string) bool {
	return slices.Contains(r, role)
}
