// Package db holds the sqlite schema and the queries run against it.
package db

import (
	"context"
	"database/sql"
	_ "embed"
)

//go:embed schema.sql
var Schema string

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db: tx,
	}
}

type Transcript struct {
	Username  string
	FetchedAt int64
	Data      string
}

type UserSection struct {
	ID          int64
	Username    string
	SectionID   string
	SectionName string
}

type GradeSnapshot struct {
	UserSectionID int64
	Term          string
	Time          int64
	Value         float64
}
