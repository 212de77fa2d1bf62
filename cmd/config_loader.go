package cmd

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/dbdrill/internal/config"
	"github.com/oakwood-commons/dbdrill/pkg/loader"
	"github.com/oakwood-commons/dbdrill/pkg/settings"
)

// loadModel reads and validates the resources file at path.
func loadModel(path string) (*config.Model, error) {
	doc, err := loader.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	model, err := config.Load(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return model, nil
}

// resolveDSN returns the --dsn flag, else the first non-empty DSN environment variable.
func resolveDSN(flag string, lookupEnv func(string) (string, bool)) (string, error) {
	if s := strings.TrimSpace(flag); s != "" {
		return s, nil
	}
	for _, name := range settings.DSNEnvVars {
		if v, ok := lookupEnv(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", fmt.Errorf("no database connection string: pass --dsn or set $%s", strings.Join(settings.DSNEnvVars, " or $"))
}
