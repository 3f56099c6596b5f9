package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  tenant_id    TEXT        NOT NULL,
  index_domain TEXT        NOT NULL,
  bucket       TEXT        NOT NULL,
  key          TEXT        NOT NULL,
  title        TEXT        NOT NULL,
  content_type TEXT        NOT NULL,
  size         BIGINT      NOT NULL CHECK (size >= 0),
  status       TEXT        NOT NULL DEFAULT 'uploaded',
  retry_count  INT         NOT NULL DEFAULT 0,
  uploaded_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  synced_at    TIMESTAMPTZ,
  UNIQUE (tenant_id, key)
);`,
	},
	{
		Name: "create_index_documents_tenant_uploaded",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_tenant_uploaded ON documents (tenant_id, uploaded_at DESC);`,
	},
	{
		Name: "create_index_documents_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status);`,
	},
	{
		Name: "create_table_chat_messages",
		SQL: `CREATE TABLE IF NOT EXISTS chat_messages (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  session_id TEXT        NOT NULL,
  role       TEXT        NOT NULL CHECK (role IN ('user', 'assistant')),
  content    TEXT        NOT NULL,
  sources    JSONB       NOT NULL DEFAULT '[]',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_chat_messages_session",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages (session_id, created_at);`,
	},
	{
		Name: "create_table_usage_records",
		SQL: `CREATE TABLE IF NOT EXISTS usage_records (
  tenant_id     TEXT             NOT NULL,
  model_id      TEXT             NOT NULL,
  month         TEXT             NOT NULL,
  invocations   BIGINT           NOT NULL DEFAULT 0,
  input_tokens  BIGINT           NOT NULL DEFAULT 0,
  output_tokens BIGINT           NOT NULL DEFAULT 0,
  cost          DOUBLE PRECISION NOT NULL DEFAULT 0,
  PRIMARY KEY (tenant_id, model_id, month)
);`,
	},
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	start := time.Now()

	var exists bool
	query := "SELECT to_regclass('public.documents') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db migration check failed", zap.Error(err))
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db schema already exists, skipping migration",
			zap.Duration("elapsed", time.Since(start)))
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db migration step failed",
				zap.String("step", step.Name),
				zap.Error(err))
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info("db migration step applied",
			zap.String("step", step.Name),
			zap.Duration("elapsed", time.Since(stepStart)))
	}

	log.Info("db migration complete", zap.Duration("elapsed", time.Since(start)))
	return nil
}
