package config

// EnvPrefix scopes every environment variable read by envconfig.
const EnvPrefix = "OAKLINE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "OAKLINE_DB_DSN"
	EnvDBHost = "OAKLINE_DB_HOST"
	EnvDBUser = "OAKLINE_DB_USER"
	EnvDBName = "OAKLINE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
