package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrUnknownSort      = errors.New("unknown sort field")
	ErrUserAlreadyExist = errors.New("user already exist")
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) isPostgres() bool {
	return r.DB.Dialector.Name() == "postgres"
}
