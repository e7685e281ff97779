package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/userembed/internal/dbx"
	"github.com/dmitrijs2005/userembed/internal/server/migrations"
	"github.com/dmitrijs2005/userembed/internal/server/repositories/features"
	"github.com/dmitrijs2005/userembed/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/userembed/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

var gooseUpContext = goose.UpContext

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Features(db dbx.DBTX) features.Repository {
	return features.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
