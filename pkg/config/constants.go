package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for unannotated fields.
const EnvPrefix = "PRATOEXPRESS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "PRATOEXPRESS_DB_DSN"
	EnvDBHost = "PRATOEXPRESS_DB_HOST"
	EnvDBUser = "PRATOEXPRESS_DB_USER"
	EnvDBName = "PRATOEXPRESS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
