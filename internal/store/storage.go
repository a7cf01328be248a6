package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("resource not found")
	QueryTimeoutDuration = time.Second * 5
)

// FileRemover is how the bulk delete transaction reaches the image asset
// store. Implementations must treat a missing file as success.
type FileRemover interface {
	Remove(name string) error
}

type Storage struct {
	Products interface {
		Create(context.Context, *Product) error
		GetByID(context.Context, int64) (*Product, error)
		List(context.Context) ([]Product, error)
		Update(context.Context, *Product) error
		DeleteMany(context.Context, []int64, FileRemover) (int64, error)
	}
	Users interface {
		Create(context.Context, *User) error
		GetByID(context.Context, int64) (*User, error)
		GetByUsername(context.Context, string) (*User, error)
	}
}

func NewStorage(db *sql.DB) Storage {
	return Storage{
		Products: &ProductsStore{db},
		Users:    &UsersStore{db},
	}
}
