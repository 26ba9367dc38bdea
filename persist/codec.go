package persist

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/formstep-io/formstep/types"
)

// EncodeRecord serializes a snapshot record to its stored wire format.
func EncodeRecord(rec *types.SnapshotRecord) ([]byte, error) {
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot record: %w", err)
	}
	return data, nil
}

// DecodeRecord deserializes a stored record. A decode failure means the
// record is corrupt; callers treat it as "no data available".
func DecodeRecord(data []byte) (*types.SnapshotRecord, error) {
	var rec types.SnapshotRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt snapshot record: %w", err)
	}
	return &rec, nil
}
