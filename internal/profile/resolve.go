package profile

import "github.com/vialibre/opchat/internal/config"

// Resolve determines the active operator code using precedence:
// 1. flagOverride (--operator flag)
// 2. config.toml default_operator
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultOperator != "" {
		return cfg.DefaultOperator
	}
	return ""
}
