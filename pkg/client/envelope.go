package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// maxEnvelopeDepth bounds how many {data: ...} wrappers are peeled.
// Paginated responses nest twice ({data: {data: [...]}}).
const maxEnvelopeDepth = 3

// unwrapList returns the JSON array carried by body. Accepted shapes are a
// bare array, {"data": [...]} and {"data": {"data": [...]}}. A null body or
// null data yields an empty array.
func unwrapList(body []byte) (json.RawMessage, error) {
	cur := bytes.TrimSpace(body)
	for depth := 0; depth <= maxEnvelopeDepth; depth++ {
		if len(cur) == 0 || bytes.Equal(cur, []byte("null")) {
			return json.RawMessage("[]"), nil
		}
		switch cur[0] {
		case '[':
			return json.RawMessage(cur), nil
		case '{':
			var env map[string]json.RawMessage
			if err := json.Unmarshal(cur, &env); err != nil {
				return nil, &ValidationError{Reason: fmt.Sprintf("decode envelope: %v", err)}
			}
			data, ok := env["data"]
			if !ok {
				return nil, &ValidationError{Reason: "object without data array"}
			}
			cur = bytes.TrimSpace(data)
		default:
			return nil, &ValidationError{Reason: "expected array or object"}
		}
	}
	return nil, &ValidationError{Reason: "envelope nested too deeply"}
}

// unwrapObject returns the JSON object carried by body: either the bare
// object or the value of its "data" key when that value is an object.
func unwrapObject(body []byte) (json.RawMessage, error) {
	cur := bytes.TrimSpace(body)
	for depth := 0; depth <= maxEnvelopeDepth; depth++ {
		if len(cur) == 0 || cur[0] != '{' {
			return nil, &ValidationError{Reason: "expected object"}
		}
		var env map[string]json.RawMessage
		if err := json.Unmarshal(cur, &env); err != nil {
			return nil, &ValidationError{Reason: fmt.Sprintf("decode envelope: %v", err)}
		}
		data, ok := env["data"]
		data = bytes.TrimSpace(data)
		if !ok || len(data) == 0 || data[0] != '{' {
			return json.RawMessage(cur), nil
		}
		cur = data
	}
	return nil, &ValidationError{Reason: "envelope nested too deeply"}
}

// decodeList unwraps body and decodes each array element into a T. An
// element that fails to decode is left out and reported in skipped; only a
// malformed envelope fails the whole list.
func decodeList[T any](body []byte) (items []T, skipped []error, err error) {
	raw, err := unwrapList(body)
	if err != nil {
		return nil, nil, err
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, nil, &ValidationError{Reason: fmt.Sprintf("decode list: %v", err)}
	}
	items = make([]T, 0, len(elems))
	for i, elem := range elems {
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			skipped = append(skipped, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		items = append(items, v)
	}
	return items, skipped, nil
}

// decodeObject unwraps body and decodes the object into out.
func decodeObject(body []byte, out any) error {
	raw, err := unwrapObject(body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ValidationError{Reason: fmt.Sprintf("decode object: %v", err)}
	}
	return nil
}

// decodeCount reads a scalar count from a bare number or an object carrying
// count, unread_count or unreadCount (optionally inside data).
func decodeCount(body []byte) (int, error) {
	trimmed := bytes.TrimSpace(body)
	var n int
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return n, nil
	}
	var scalar struct {
		Data *int `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &scalar); err == nil && scalar.Data != nil {
		return *scalar.Data, nil
	}
	raw, err := unwrapObject(trimmed)
	if err != nil {
		return 0, err
	}
	var fields struct {
		Count       *int `json:"count"`
		UnreadCount *int `json:"unread_count"`
		UnreadCamel *int `json:"unreadCount"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return 0, &ValidationError{Reason: fmt.Sprintf("decode count: %v", err)}
	}
	switch {
	case fields.UnreadCount != nil:
		return *fields.UnreadCount, nil
	case fields.UnreadCamel != nil:
		return *fields.UnreadCamel, nil
	case fields.Count != nil:
		return *fields.Count, nil
	}
	return 0, &ValidationError{Reason: "count missing"}
}
