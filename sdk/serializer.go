package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// encodeBody converts a request body into JSON.
//
// Special handling:
//   - nil: no body
//   - json.RawMessage and []byte: passed through as-is, must be valid JSON
//   - All other types: Marshaled to JSON
func encodeBody(body interface{}) (json.RawMessage, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(v) == 0 {
			return nil, nil
		}
		if !json.Valid(v) {
			return nil, validationError("request body is not valid JSON")
		}
		return v, nil
	case []byte:
		return encodeBody(json.RawMessage(v))
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, validationError("failed to marshal request body: %v", err)
	}
	return data, nil
}

// deserialize unmarshals a payload into target.
//
// Example:
//
//	var course Course
//	err := deserialize(json.RawMessage(`{"id":7,"title":"Go"}`), &course)
func deserialize(data json.RawMessage, target interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidResponse)
	}

	if raw, ok := target.(*json.RawMessage); ok {
		*raw = data
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// isAcknowledgement reports whether raw is the {"success": true, "data": ...}
// envelope produced by the mock responders.
func isAcknowledgement(raw json.RawMessage) bool {
	res := gjson.ParseBytes(raw)
	return res.IsObject() && res.Get("success").Type == gjson.True && res.Get("data").Exists()
}

// unwrapData returns the "data" member of an acknowledgement envelope, or raw
// unchanged for any other payload.
func unwrapData(raw json.RawMessage) json.RawMessage {
	if !isAcknowledgement(raw) {
		return raw
	}
	return json.RawMessage(gjson.GetBytes(raw, "data").Raw)
}

// selectRecord picks out the element with the given id when raw is a
// collection. Objects are returned unchanged.
func selectRecord(raw json.RawMessage, id string) (json.RawMessage, error) {
	return selectBy(raw, "id", id)
}

// selectBy returns the first collection element whose field equals value.
// Values are compared as strings so 7 and "7" both match.
func selectBy(raw json.RawMessage, field, value string) (json.RawMessage, error) {
	res := gjson.ParseBytes(bytes.TrimSpace(raw))
	if !res.IsArray() {
		return raw, nil
	}
	var found *gjson.Result
	res.ForEach(func(_, item gjson.Result) bool {
		if item.Get(field).String() == value {
			found = &item
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("record with %s %s: %w", field, value, ErrNotFound)
	}
	return json.RawMessage(found.Raw), nil
}

// firstRecord returns the first element of a collection, or raw for objects.
func firstRecord(raw json.RawMessage) (json.RawMessage, error) {
	res := gjson.ParseBytes(bytes.TrimSpace(raw))
	if !res.IsArray() {
		return raw, nil
	}
	first := res.Get("0")
	if !first.Exists() {
		return nil, fmt.Errorf("empty collection: %w", ErrNotFound)
	}
	return json.RawMessage(first.Raw), nil
}

// filterRecords keeps the elements whose field equals value.
func filterRecords(raw json.RawMessage, field, value string) json.RawMessage {
	res := gjson.ParseBytes(bytes.TrimSpace(raw))
	if !res.IsArray() {
		return raw
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	n := 0
	res.ForEach(func(_, item gjson.Result) bool {
		if item.Get(field).String() == value {
			if n > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(item.Raw)
			n++
		}
		return true
	})
	buf.WriteByte(']')
	return buf.Bytes()
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
