package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	appErrors "medremind/internal/pkg/errors"
)

// schemaVersion is the collection envelope version this build reads and
// writes.
const schemaVersion = 1

// envelope wraps a persisted collection with its schema version and a write
// revision counter. Values written before versioning were bare JSON arrays;
// those decode as version 0 and are rewritten as the current version on the
// next write.
type envelope struct {
	SchemaVersion int               `json:"schemaVersion"`
	Revision      int64             `json:"revision"`
	Items         []json.RawMessage `json:"items"`
}

func decodeEnvelope(raw string) (*envelope, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil, fmt.Errorf("%w: decode legacy collection: %v", appErrors.ErrStoreOperation, err)
		}
		return &envelope{SchemaVersion: 0, Items: items}, nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return nil, fmt.Errorf("%w: decode collection envelope: %v", appErrors.ErrStoreOperation, err)
	}
	if env.SchemaVersion > schemaVersion {
		return nil, fmt.Errorf("%w: got %d, supported up to %d", appErrors.ErrSchemaVersion, env.SchemaVersion, schemaVersion)
	}
	return &env, nil
}

func encodeEnvelope(revision int64, items []json.RawMessage) (string, error) {
	if items == nil {
		items = []json.RawMessage{}
	}
	b, err := json.Marshal(envelope{SchemaVersion: schemaVersion, Revision: revision, Items: items})
	if err != nil {
		return "", fmt.Errorf("%w: encode collection envelope: %v", appErrors.ErrStoreOperation, err)
	}
	return string(b), nil
}

// quarantine appends rejected raw items to <key>:quarantine. Best effort,
// failures are logged and never block the caller.
func quarantine(ctx context.Context, kv KVStore, log *zap.Logger, key string, rejected []json.RawMessage) {
	if len(rejected) == 0 {
		return
	}
	qkey := key + ":quarantine"

	var existing []json.RawMessage
	if raw, err := kv.Get(ctx, qkey); err == nil {
		if err := json.Unmarshal([]byte(raw), &existing); err != nil {
			log.Warn("quarantine key held malformed data, resetting", zap.String("key", qkey))
			existing = nil
		}
	}
	existing = append(existing, rejected...)

	b, err := json.Marshal(existing)
	if err != nil {
		log.Warn("encoding quarantine failed", zap.String("key", qkey), zap.Error(err))
		return
	}
	if err := kv.Set(ctx, qkey, string(b)); err != nil {
		log.Warn("writing quarantine failed", zap.String("key", qkey), zap.Error(err))
		return
	}
	log.Warn("quarantined malformed records", zap.String("key", qkey), zap.Int("count", len(rejected)))
}
