package config

import "strings"

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// IsProductionLike reports whether environment is staging or production, ignoring case
func IsProductionLike(environment string) bool {
	env := strings.ToLower(strings.TrimSpace(environment))
	return env == EnvStaging || env == EnvProduction
}
