package remote

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is one entity as the upstream backend reports it.
type Record struct {
	ID        string
	Fields    map[string]string
	MediaURLs []string
}

// mediaKeys are the payload fields that carry image references rather than
// entity data, in probe order.
var mediaKeys = []string{"images", "image", "image_url", "photo", "logo", "logo_url"}

// decodeList tolerates the response shapes different backend versions use:
// a bare array, an array under "data", a paginator under "data" with its
// own "data" array, or failing those the first array-valued field.
func decodeList(base string, body []byte) ([]Record, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode upstream list: %w", err)
	}

	items, ok := probeList(raw)
	if !ok {
		return nil, fmt.Errorf("upstream list has no recognizable shape")
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, decodeRecord(base, obj))
	}
	return records, nil
}

func probeList(raw any) ([]any, bool) {
	if items, ok := raw.([]any); ok {
		return items, true
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	if items, ok := obj["data"].([]any); ok {
		return items, true
	}
	if inner, ok := obj["data"].(map[string]any); ok {
		if items, ok := inner["data"].([]any); ok {
			return items, true
		}
	}
	for _, v := range obj {
		if items, ok := v.([]any); ok {
			return items, true
		}
	}
	return nil, false
}

// decodeOne parses a single-record response: a bare object or one wrapped
// under "data".
func decodeOne(base string, body []byte) (Record, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Record{}, fmt.Errorf("decode upstream record: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return Record{}, fmt.Errorf("upstream record is not an object")
	}
	if inner, ok := obj["data"].(map[string]any); ok {
		obj = inner
	}
	return decodeRecord(base, obj), nil
}

func decodeRecord(base string, obj map[string]any) Record {
	rec := Record{Fields: make(map[string]string)}
	for key, value := range obj {
		if key == "id" {
			rec.ID = stringify(value)
			continue
		}
		if isMediaKey(key) {
			rec.MediaURLs = append(rec.MediaURLs, decodeMedia(base, value)...)
			continue
		}
		if s, ok := scalar(value); ok {
			rec.Fields[key] = s
		}
	}
	return rec
}

func isMediaKey(key string) bool {
	for _, k := range mediaKeys {
		if key == k {
			return true
		}
	}
	return false
}

func decodeMedia(base string, value any) []string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{ToAbsoluteURL(base, v)}
	case []any:
		var urls []string
		for _, item := range v {
			urls = append(urls, decodeMedia(base, item)...)
		}
		return urls
	case map[string]any:
		for _, k := range []string{"url", "image_url", "path"} {
			if s, ok := v[k].(string); ok && s != "" {
				return []string{ToAbsoluteURL(base, s)}
			}
		}
	}
	return nil
}

func scalar(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return stringify(v), true
	case bool:
		return strconv.FormatBool(v), true
	case nil:
		return "", false
	}
	return "", false
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", value)
}

// ToAbsoluteURL resolves an upstream media path against the backend base
// URL. Already-absolute URLs and transient schemes pass through untouched.
func ToAbsoluteURL(base, p string) string {
	if p == "" {
		return ""
	}
	for _, prefix := range []string{"http://", "https://", "blob:", "data:"} {
		if strings.HasPrefix(p, prefix) {
			return p
		}
	}
	if strings.HasPrefix(p, "/") {
		return base + p
	}
	return base + "/" + p
}
