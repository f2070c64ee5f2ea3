package consumer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidEntry = errors.New("invalid stream entry")

// Entry is one stream entry as delivered to the group.
type Entry struct {
	ID     string
	Values map[string]any
}

// Identifier is the external identifier carried by an entry.
type Identifier struct {
	PartyID    int64
	SystemName string
	ExternalID string
}

// Decode reads party_id, system_name and external_id from the entry's
// fields. Entries written by the outbox relay carry them inside a JSON
// "data" field instead, which is accepted too.
func Decode(values map[string]any) (Identifier, error) {
	fields := values
	if _, ok := values["party_id"]; !ok {
		raw, ok := values["data"]
		if !ok {
			return Identifier{}, fmt.Errorf("%w: no party_id or data field", ErrInvalidEntry)
		}
		nested, err := decodeData(raw)
		if err != nil {
			return Identifier{}, err
		}
		fields = nested
	}

	partyText := fieldString(fields["party_id"])
	partyID, err := strconv.ParseInt(partyText, 10, 64)
	if err != nil || partyID <= 0 {
		return Identifier{}, fmt.Errorf("%w: party_id %q", ErrInvalidEntry, partyText)
	}
	// values are stored as received; only blank ones are rejected
	id := Identifier{
		PartyID:    partyID,
		SystemName: fieldString(fields["system_name"]),
		ExternalID: fieldString(fields["external_id"]),
	}
	switch {
	case strings.TrimSpace(id.SystemName) == "" || len(id.SystemName) > 100:
		return Identifier{}, fmt.Errorf("%w: system_name %q", ErrInvalidEntry, id.SystemName)
	case strings.TrimSpace(id.ExternalID) == "" || len(id.ExternalID) > 255:
		return Identifier{}, fmt.Errorf("%w: external_id %q", ErrInvalidEntry, id.ExternalID)
	}
	return id, nil
}

func decodeData(raw any) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(fieldString(raw))))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil || out == nil {
		return nil, fmt.Errorf("%w: data is not a json object", ErrInvalidEntry)
	}
	return out, nil
}

func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return t.String()
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
