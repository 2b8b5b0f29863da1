package config

// Default paths for local data
const (
	// DefaultDatabasePath is the default path for the library database
	DefaultDatabasePath = "./shelf.db"

	// DefaultCoversDirName is the directory for extracted covers, created
	// next to the database file
	DefaultCoversDirName = "covers"
)
