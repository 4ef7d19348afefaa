package migration

// getAllMigrations retorna todas as migrações disponíveis
func getAllMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_assessments",
			Up: `
				CREATE TABLE assessments (
					id UUID PRIMARY KEY,
					status VARCHAR(20) NOT NULL,
					composite_score INTEGER NOT NULL DEFAULT 0,
					placement_x DOUBLE PRECISION NOT NULL DEFAULT 0,
					placement_y DOUBLE PRECISION NOT NULL DEFAULT 0,
					tracked_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
					period_total DOUBLE PRECISION NOT NULL DEFAULT 0,
					document JSONB NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_assessments_created_at ON assessments(created_at DESC);
			`,
			Down: `
				DROP TABLE IF EXISTS assessments;
			`,
		},
		{
			Version: 2,
			Name:    "add_sync_status",
			Up: `
				ALTER TABLE assessments ADD COLUMN sync_status VARCHAR(20);
				CREATE INDEX idx_assessments_status ON assessments(status);
			`,
			Down: `
				DROP INDEX IF EXISTS idx_assessments_status;
				ALTER TABLE assessments DROP COLUMN IF EXISTS sync_status;
			`,
		},
	}
}
