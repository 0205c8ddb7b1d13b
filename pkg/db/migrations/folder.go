package migrations

import "gorm.io/gorm"

// FolderMigrations returns the schema history of a per-tenant SQLite database.
func FolderMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create tags, events, event_files and event_tags",
			Up: func(db *gorm.DB) error {
				return execAll(db,
					`CREATE TABLE IF NOT EXISTS tags (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						name TEXT NOT NULL,
						name_norm TEXT NOT NULL UNIQUE,
						created_at DATETIME NOT NULL
					)`,
					`CREATE TABLE IF NOT EXISTS events (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						event_date TEXT NOT NULL,
						name TEXT NOT NULL,
						description TEXT NOT NULL DEFAULT '',
						remark TEXT NOT NULL DEFAULT '',
						created_at DATETIME NOT NULL,
						updated_at DATETIME NOT NULL
					)`,
					`CREATE TABLE IF NOT EXISTS event_files (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
						file_url TEXT NOT NULL,
						local_path TEXT,
						display_name TEXT,
						file_type TEXT,
						added_at DATETIME NOT NULL,
						UNIQUE(event_id, file_url)
					)`,
					`CREATE TABLE IF NOT EXISTS event_tags (
						event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
						tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
						PRIMARY KEY (event_id, tag_id)
					)`,
				)
			},
			Down: func(db *gorm.DB) error {
				return execAll(db,
					`DROP TABLE IF EXISTS event_tags`,
					`DROP TABLE IF EXISTS event_files`,
					`DROP TABLE IF EXISTS events`,
					`DROP TABLE IF EXISTS tags`,
				)
			},
		},
		{
			Version:     2,
			Description: "Create listing indexes",
			Up: func(db *gorm.DB) error {
				return execAll(db,
					`CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date)`,
					`CREATE INDEX IF NOT EXISTS idx_files_event ON event_files(event_id)`,
					`CREATE INDEX IF NOT EXISTS idx_tags_norm ON tags(name_norm)`,
				)
			},
			Down: func(db *gorm.DB) error {
				return execAll(db,
					`DROP INDEX IF EXISTS idx_tags_norm`,
					`DROP INDEX IF EXISTS idx_files_event`,
					`DROP INDEX IF EXISTS idx_events_date`,
				)
			},
		},
	}
}
