// Package repository persists published reports.
package repository

import (
	"errors"

	"github.com/yourusername/quant-edge/internal/database"
)

// Repositories groups the stores backed by one database.
type Repositories struct {
	Reports ReportRepository
}

// NewRepositories binds every repository to db.
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, errors.New("repositories need an open database")
	}
	return &Repositories{Reports: NewPostgresReportRepository(db.Querier())}, nil
}
