package model

// DecodeError records an event that could not be decoded.
type DecodeError struct {
	Height uint64 `json:"height"`
	Index  uint64 `json:"index"`
	App    AppID  `json:"app"`
	Topic0 string `json:"topic0"`
	Error  string `json:"error"`
}
