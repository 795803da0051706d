package database

// Document names used in logs and storage errors
const (
	DocumentIdentities = "users"
	DocumentActive     = "attendance"
	DocumentArchive    = "monthly attendance"
	DocumentPolicy     = "location settings"
)
