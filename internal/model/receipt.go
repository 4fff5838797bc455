package model

// Receipt is the journaled outcome of one host operation.
type Receipt struct {
	Height     uint64        `json:"height"`
	Kind       string        `json:"kind"`
	App        AppID         `json:"app"`
	Status     string        `json:"status"`
	Error      string        `json:"error,omitempty"`
	ErrorClass string        `json:"error_class,omitempty"`
	ErrorCode  string        `json:"error_code,omitempty"`
	Result     interface{}   `json:"result,omitempty"`
	Events     []EventRecord `json:"events,omitempty"`
	AppHash    string        `json:"app_hash"`
	ExecutedAt string        `json:"executed_at"`
}

const (
	ReceiptOK       = "ok"
	ReceiptRejected = "rejected"
)
