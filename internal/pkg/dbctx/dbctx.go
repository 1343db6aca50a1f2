package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Services that open a transaction pass it down so every repo call in the
// unit of work shares it; outside a transaction Tx stays nil.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Transaction resolves the handle a repo should run against: the carried
// transaction when one is open, otherwise fallback.
func (c Context) Transaction(fallback *gorm.DB) *gorm.DB {
	if c.Tx != nil {
		return c.Tx
	}
	return fallback
}
