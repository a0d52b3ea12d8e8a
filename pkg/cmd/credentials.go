package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pilotwire/pilotwire/pkg/credentials"
)

var supportedCredentialProviders = []string{"file", "postgres", "postgresql", "redis", "rediss"}

// NewCredentialStore creates a credential store based on the URL scheme.
// Anything without a recognized scheme is treated as a filesystem path.
func NewCredentialStore(ctx context.Context, logger *slog.Logger, storeURL string) (credentials.Store, error) {
	switch parseCredentialProvider(storeURL) {
	case "postgres", "postgresql":
		return credentials.NewPostgresStore(ctx, logger, storeURL)
	case "redis", "rediss":
		return credentials.NewRedisStore(ctx, logger, storeURL)
	case "file":
		return credentials.NewFileStore(storeURL), nil
	default:
		return nil, fmt.Errorf("unsupported credential store URL: %s", storeURL)
	}
}

func parseCredentialProvider(storeURL string) string {
	parts := strings.Split(storeURL, "://")
	if len(parts) == 1 {
		return "file"
	}

	provider := parts[0]
	for _, supported := range supportedCredentialProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
