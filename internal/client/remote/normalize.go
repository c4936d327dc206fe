package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document-store servers send "_id", "userId", "__v" and may populate
// "habitId" with the referenced habit object. normalize rewrites an
// object into the field names used everywhere else.
func normalize(raw json.RawMessage) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return raw, nil
	}

	if id, ok := obj["_id"]; ok {
		if cur, has := obj["id"]; !has || isNullOrEmpty(cur) {
			obj["id"] = id
		}
		delete(obj, "_id")
	}
	if owner, ok := obj["userId"]; ok {
		if _, has := obj["ownerId"]; !has {
			obj["ownerId"] = owner
		}
		delete(obj, "userId")
	}
	delete(obj, "__v")

	if hid, ok := obj["habitId"]; ok {
		flat, err := flattenRef(hid)
		if err != nil {
			return nil, fmt.Errorf("habitId: %w", err)
		}
		obj["habitId"] = flat
	}
	if at, ok := obj["completedAt"]; ok {
		if _, has := obj["timestamp"]; !has {
			obj["timestamp"] = at
		}
		delete(obj, "completedAt")
	}
	return json.Marshal(obj)
}

// flattenRef turns {"_id": "x", ...} or {"id": "x", ...} into "x".
// Scalars pass through.
func flattenRef(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw, nil
	}
	var ref map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &ref); err != nil {
		return nil, err
	}
	if id, ok := ref["_id"]; ok {
		return id, nil
	}
	if id, ok := ref["id"]; ok {
		return id, nil
	}
	return nil, fmt.Errorf("reference object has no id")
}

func isNullOrEmpty(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	return s == "null" || s == `""`
}

func normalizeList(raw json.RawMessage) (json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	for i := range items {
		n, err := normalize(items[i])
		if err != nil {
			return nil, err
		}
		items[i] = n
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return json.Marshal(items)
}
