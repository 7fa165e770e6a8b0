package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Bindings table - maps a gesture identity to a plugin action
		`CREATE TABLE IF NOT EXISTS bindings (
			id TEXT PRIMARY KEY,
			hand TEXT NOT NULL CHECK(hand IN ('left', 'right')),
			sign TEXT NOT NULL,
			kind TEXT NOT NULL CHECK(kind IN ('press', 'hold')),
			priority INTEGER NOT NULL DEFAULT 0,
			hold_count INTEGER NOT NULL DEFAULT 0,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Press bindings share one dispatch slot per priority
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bindings_press_priority
			ON bindings(hand, sign, priority) WHERE kind = 'press'`,
		`CREATE INDEX IF NOT EXISTS idx_bindings_identity ON bindings(hand, sign)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
