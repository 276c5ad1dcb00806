// Package repomanager hands out repositories bound to a DBTX so services can
// use the same repository code inside and outside transactions.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/mdemidovs/secretbin/internal/dbx"
	"github.com/mdemidovs/secretbin/internal/server/repositories/refreshtokens"
	"github.com/mdemidovs/secretbin/internal/server/repositories/secrets"
	"github.com/mdemidovs/secretbin/internal/server/repositories/shares"
	"github.com/mdemidovs/secretbin/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Secrets(db dbx.DBTX) secrets.Repository
	Shares(db dbx.DBTX) shares.Repository
}
