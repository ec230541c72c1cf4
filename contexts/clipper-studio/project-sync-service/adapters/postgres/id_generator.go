package postgresadapter

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// UUIDGenerator creates stable UUIDv4 identifiers, optionally prefixed so
// log lines stay readable.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context, prefix string) (string, error) {
	id := uuid.NewString()
	if trimmed := strings.TrimSpace(prefix); trimmed != "" {
		return trimmed + "-" + id, nil
	}
	return id, nil
}
