package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by the GORM repositories. It carries the connection, or
// the open transaction when the repository was rebound with Bind.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// Bind returns a Base that runs on tx. A nil tx keeps the current connection.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{conn: tx}
}

// DB scopes the connection to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}

// FindOne loads the first row matching column = value into dest and returns
// gorm.ErrRecordNotFound when nothing matches.
func (b Base) FindOne(ctx context.Context, dest any, column string, value any) error {
	return b.DB(ctx).Where(column+" = ?", value).First(dest).Error
}

// MustAffect turns a zero-row update into gorm.ErrRecordNotFound.
func MustAffect(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Transitioned reports whether a guarded status update changed exactly one
// row. A false result with a nil error means the guard no longer matched.
func Transitioned(res *gorm.DB) (bool, error) {
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
