// internal/websocket/utils.go
package websocket

import "encoding/json"

// mapToStruct decodes a generic message payload into target
func mapToStruct(data interface{}, target interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
