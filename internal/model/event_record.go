package model

// EventRecord is the ABI-encoded form of an event emitted by an operation.
type EventRecord struct {
	Height uint64   `json:"height"`
	Index  uint64   `json:"index"`
	App    AppID    `json:"app"`
	Name   string   `json:"name"`
	Topics []string `json:"topics"`
	Data   string   `json:"data"`
}
