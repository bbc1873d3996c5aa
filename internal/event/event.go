package event

import "encoding/json"

// WsEvent is the envelope for every socket frame, both directions. Payload is
// decoded per event name.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// New builds an envelope, marshalling the payload. Marshal errors are not
// possible for the payload structs used here, so they are swallowed the same
// way the handlers do with json.Marshal on known types.
func New(name string, payload any) WsEvent {
	raw, _ := json.Marshal(payload)
	return WsEvent{Event: name, Payload: raw}
}
