// Package repositories implements SQLite persistence for agent settings and station play history.
//
// Key Implementations:
//   - [SettingsRepository] : Key/value rows backing the agent's settings store
//   - [HistoryRepository] : Songs and their plays, queried by calendar date for GET /songs/{date}
//
// Both expect a database migrated with [shared.RunMigrations].
package repositories
