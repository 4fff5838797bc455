package events

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"intentBook/internal/model"
)

// Decoder decodes engine event records.
type Decoder struct {
	engineABI   abi.ABI
	topicToName map[string]string
}

func NewDecoder() (*Decoder, error) {
	parsed, err := EngineABI()
	if err != nil {
		return nil, err
	}
	topicToName := make(map[string]string, len(parsed.Events))
	for name, event := range parsed.Events {
		topicToName[strings.ToLower(event.ID.Hex())] = name
	}
	return &Decoder{engineABI: parsed, topicToName: topicToName}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts an EventRecord into a TypedEvent.
func (d *Decoder) Decode(rec model.EventRecord, kind string) (*model.TypedEvent, error) {
	if len(rec.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(rec.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", rec.Topics[0])
	}
	event := d.engineABI.Events[name]

	indexedTopics, err := parseIndexedTopics(event, rec.Topics)
	if err != nil {
		return nil, err
	}
	values, err := unpackNonIndexed(event, rec.Data)
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	switch name {
	case "PoolCreated":
		decoded, err = decodePoolCreated(event, indexedTopics, values)
	case "Trade":
		decoded, err = decodeTrade(values)
	case "IntentPlaced":
		decoded, err = decodeIntentPlaced(event, indexedTopics, values)
	case "IntentSettled":
		decoded, err = decodeIntentSettled(event, indexedTopics, values)
	case "Graduated":
		decoded, err = decodeGraduated(values)
	default:
		err = fmt.Errorf("unsupported event name: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	return &model.TypedEvent{
		Height:    rec.Height,
		Index:     rec.Index,
		App:       rec.App,
		Kind:      kind,
		EventName: name,
		Decoded:   decoded,
		Raw:       &model.RawEventRef{Topic0: rec.Topics[0], Data: rec.Data},
	}, nil
}

func decodePoolCreated(event abi.Event, topics []common.Hash, values []interface{}) (model.PoolCreatedData, error) {
	var indexed struct {
		Ledger [32]byte
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), topics); err != nil {
		return model.PoolCreatedData{}, fmt.Errorf("parse topics: %w", err)
	}
	if len(values) != 6 {
		return model.PoolCreatedData{}, fmt.Errorf("unexpected pool created values: %d", len(values))
	}
	r := reader{values: values}
	out := model.PoolCreatedData{
		Ledger:              common.Hash(indexed.Ledger).Hex(),
		Symbol:              r.str(0),
		TotalCurveSupply:    r.amount(1),
		GraduationThreshold: r.amount(2),
		FeeBps:              r.u16(3),
		VirtualX:            r.amount(4),
		VirtualY:            r.amount(5),
	}
	return out, r.err
}

func decodeTrade(values []interface{}) (model.TradeData, error) {
	if len(values) != 8 {
		return model.TradeData{}, fmt.Errorf("unexpected trade values: %d", len(values))
	}
	r := reader{values: values}
	out := model.TradeData{
		Symbol:       r.str(0),
		Owner:        r.owner(1),
		Side:         r.side(2),
		AmountIn:     r.amount(3),
		AmountOut:    r.amount(4),
		Fee:          r.amount(5),
		WlinReserve:  r.amount(6),
		TokenReserve: r.amount(7),
	}
	return out, r.err
}

func decodeIntentPlaced(event abi.Event, topics []common.Hash, values []interface{}) (model.IntentPlacedData, error) {
	var indexed struct {
		Seq uint64
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), topics); err != nil {
		return model.IntentPlacedData{}, fmt.Errorf("parse topics: %w", err)
	}
	if len(values) != 5 {
		return model.IntentPlacedData{}, fmt.Errorf("unexpected intent placed values: %d", len(values))
	}
	r := reader{values: values}
	out := model.IntentPlacedData{
		Seq:        indexed.Seq,
		Symbol:     r.str(0),
		Owner:      r.owner(1),
		Side:       r.side(2),
		Amount:     r.amount(3),
		LimitPrice: r.str(4),
	}
	return out, r.err
}

func decodeIntentSettled(event abi.Event, topics []common.Hash, values []interface{}) (model.IntentSettledData, error) {
	var indexed struct {
		Seq uint64
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), topics); err != nil {
		return model.IntentSettledData{}, fmt.Errorf("parse topics: %w", err)
	}
	if len(values) != 5 {
		return model.IntentSettledData{}, fmt.Errorf("unexpected intent settled values: %d", len(values))
	}
	r := reader{values: values}
	out := model.IntentSettledData{
		Seq:       indexed.Seq,
		Symbol:    r.str(0),
		Fill:      r.amount(1),
		AmountOut: r.amount(2),
		Remaining: r.amount(3),
		Status:    r.status(4),
	}
	return out, r.err
}

func decodeGraduated(values []interface{}) (model.GraduatedData, error) {
	if len(values) != 2 {
		return model.GraduatedData{}, fmt.Errorf("unexpected graduated values: %d", len(values))
	}
	r := reader{values: values}
	out := model.GraduatedData{Symbol: r.str(0), WlinReserve: r.amount(1)}
	return out, r.err
}

// reader converts unpacked ABI values, keeping the first conversion error.
type reader struct {
	values []interface{}
	err    error
}

func (r *reader) fail(i int, want string) {
	if r.err == nil {
		r.err = fmt.Errorf("value %d: want %s, got %T", i, want, r.values[i])
	}
}

func (r *reader) str(i int) string {
	v, ok := r.values[i].(string)
	if !ok {
		r.fail(i, "string")
	}
	return v
}

func (r *reader) owner(i int) string {
	v, ok := r.values[i].([]byte)
	if !ok {
		r.fail(i, "bytes")
		return ""
	}
	return hexutil.Encode(v)
}

func (r *reader) amount(i int) string {
	v, err := asBigInt(r.values[i])
	if err != nil {
		r.fail(i, "integer")
		return ""
	}
	return v.String()
}

func (r *reader) u16(i int) uint16 {
	v, ok := r.values[i].(uint16)
	if !ok {
		r.fail(i, "uint16")
	}
	return v
}

func (r *reader) u8(i int) uint8 {
	v, ok := r.values[i].(uint8)
	if !ok {
		r.fail(i, "uint8")
	}
	return v
}

func (r *reader) side(i int) string {
	return model.Side(r.u8(i)).String()
}

func (r *reader) status(i int) string {
	return model.IntentStatus(r.u8(i)).String()
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported integer type %T", value)
	}
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
