package redis

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/habitledger/internal/storage"
)

// parseMeta converts a Redis hash to Meta. A missing hash is revision zero.
func parseMeta(data map[string]string) (*storage.Meta, error) {
	meta := &storage.Meta{}
	if len(data) == 0 {
		return meta, nil
	}

	if raw, ok := data["revision"]; ok {
		revision, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse revision: %w", err)
		}
		meta.Revision = revision
	}

	if raw, ok := data["updated_at"]; ok {
		updatedAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		meta.UpdatedAt = updatedAt
	}

	return meta, nil
}
