package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
	"github.com/dmitrijs2005/estimatekeeper/internal/server/repositories/rows"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Rows(db dbx.DBTX) rows.Repository
}
