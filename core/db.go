package core

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

const DefaultPageSize = 10

type (
	// DBExecutor is satisfied by both *sqlx.DB and *sqlx.Tx.
	DBExecutor interface {
		sqlx.ExtContext
	}

	DB interface {
		DBExecutor

		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	}
)

// Page selects a window of a listing. Numbers start at 1.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"page_size"`
}

// NewPage returns a valid Page: non-positive numbers fall back to the first page
// and non-positive sizes to DefaultPageSize.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Limit() int { return p.Size }

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}
