// Package database opens the SQLite file behind the run history through
// GORM and the go-sqlite3 driver, and maps driver errors to app errors.
//
// The database is optional. When Config.Enabled is false, Start does nothing
// and Health reports "disabled".
//
//	db := database.NewComponent(cfg.History, log)
//	registry.Register(db)
//	// after start
//	history.Migrate(db.DB())
package database
