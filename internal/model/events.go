package model

// PoolCreatedData is the decoded PoolCreated event payload.
type PoolCreatedData struct {
	Symbol              string `json:"symbol"`
	Ledger              string `json:"ledger"`
	TotalCurveSupply    string `json:"total_curve_supply"`
	GraduationThreshold string `json:"graduation_threshold"`
	FeeBps              uint16 `json:"fee_bps"`
	VirtualX            string `json:"virtual_x"`
	VirtualY            string `json:"virtual_y"`
}

// TradeData is the decoded Trade event payload.
type TradeData struct {
	Symbol       string `json:"symbol"`
	Owner        string `json:"owner"`
	Side         string `json:"side"`
	AmountIn     string `json:"amount_in"`
	AmountOut    string `json:"amount_out"`
	Fee          string `json:"fee"`
	WlinReserve  string `json:"wlin_reserve"`
	TokenReserve string `json:"token_reserve"`
}

// IntentPlacedData is the decoded IntentPlaced event payload.
type IntentPlacedData struct {
	Symbol     string `json:"symbol"`
	Seq        uint64 `json:"seq"`
	Owner      string `json:"owner"`
	Side       string `json:"side"`
	Amount     string `json:"amount"`
	LimitPrice string `json:"limit_price"`
}

// IntentSettledData is the decoded IntentSettled event payload.
type IntentSettledData struct {
	Symbol    string `json:"symbol"`
	Seq       uint64 `json:"seq"`
	Fill      string `json:"fill"`
	AmountOut string `json:"amount_out"`
	Remaining string `json:"remaining"`
	Status    string `json:"status"`
}

// GraduatedData is the decoded Graduated event payload.
type GraduatedData struct {
	Symbol      string `json:"symbol"`
	WlinReserve string `json:"wlin_reserve"`
}
