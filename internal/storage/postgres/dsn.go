package postgres

import (
	"fmt"
	"strings"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/config"
)

// DSN returns cfg.URL when set, otherwise a keyword/value connection string
// built from the individual fields. Both drivers accept either form.
func DSN(cfg *config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	parts := []string{
		fmt.Sprintf("host=%s", quote(cfg.Host)),
		fmt.Sprintf("port=%d", cfg.Port),
		fmt.Sprintf("user=%s", quote(cfg.User)),
		fmt.Sprintf("dbname=%s", quote(cfg.Name)),
		"sslmode=disable",
	}
	if cfg.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", quote(cfg.Password)))
	}
	return strings.Join(parts, " ")
}

func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
