package repomanager

import (
	"context"
	"database/sql"

	"github.com/inkstone/identity/internal/dbx"
	"github.com/inkstone/identity/internal/server/repositories/otpchallenges"
	"github.com/inkstone/identity/internal/server/repositories/refreshtokens"
	"github.com/inkstone/identity/internal/server/repositories/roles"
	"github.com/inkstone/identity/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same repository code inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	OtpChallenges(db dbx.DBTX) otpchallenges.Repository
}
