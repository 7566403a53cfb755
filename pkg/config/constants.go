package config

const (
	EnvPrefix = "marisca"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MARISCA_DB_DSN"
	EnvDBHost = "MARISCA_DB_HOST"
	EnvDBUser = "MARISCA_DB_USER"
	EnvDBName = "MARISCA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
