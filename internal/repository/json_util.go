package repository

import "encoding/json"

// jsonOrDefault returns raw when it is a valid JSON document, def otherwise.
func jsonOrDefault(raw json.RawMessage, def string) []byte {
	if len(raw) == 0 || !json.Valid(raw) {
		return []byte(def)
	}
	return raw
}
