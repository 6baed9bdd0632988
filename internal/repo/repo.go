// Package repo is the persistence layer. It exposes only the query shapes
// the services need; callers translate gorm.ErrRecordNotFound themselves.
package repo

import (
	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

// WithTx returns a repo bound to the given transaction handle.
func (r GormRepo) WithTx(tx *gorm.DB) GormRepo {
	return GormRepo{DB: tx}
}
