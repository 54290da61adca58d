package config

const (
	DefaultDatabasePath = "lectorflow.sqlite"

	// TasksDatabaseSuffix is appended to the main database path to form the
	// dedicated task queue database file.
	TasksDatabaseSuffix = "-tasks"
)
