package model

// TypedEvent is a decoded event enriched with the receipt context it came from.
type TypedEvent struct {
	Height    uint64       `json:"height"`
	Index     uint64       `json:"index"`
	App       AppID        `json:"app"`
	Kind      string       `json:"kind"`
	EventName string       `json:"event_name"`
	Decoded   interface{}  `json:"decoded"`
	Raw       *RawEventRef `json:"raw,omitempty"`
}

// RawEventRef keeps the encoded form for traceability.
type RawEventRef struct {
	Topic0 string `json:"topic0"`
	Data   string `json:"data"`
}
