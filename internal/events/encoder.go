package events

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"intentBook/internal/model"
)

// Encoder turns engine event payloads into event records.
type Encoder struct {
	engineABI abi.ABI
}

func NewEncoder() (*Encoder, error) {
	parsed, err := EngineABI()
	if err != nil {
		return nil, err
	}
	return &Encoder{engineABI: parsed}, nil
}

// Encode packs one event emitted by app at the given height and position.
func (e *Encoder) Encode(app model.AppID, height, index uint64, event interface{}) (model.EventRecord, error) {
	var (
		name    string
		indexed []interface{}
		values  []interface{}
		err     error
	)
	switch ev := event.(type) {
	case model.PoolCreatedData:
		name = "PoolCreated"
		indexed = []interface{}{common.HexToHash(ev.Ledger)}
		values, err = packValues(ev.Symbol, bigArg(ev.TotalCurveSupply), bigArg(ev.GraduationThreshold), ev.FeeBps, bigArg(ev.VirtualX), bigArg(ev.VirtualY))
	case model.TradeData:
		name = "Trade"
		values, err = packValues(ev.Symbol, ownerArg(ev.Owner), sideArg(ev.Side), bigArg(ev.AmountIn), bigArg(ev.AmountOut), bigArg(ev.Fee), bigArg(ev.WlinReserve), bigArg(ev.TokenReserve))
	case model.IntentPlacedData:
		name = "IntentPlaced"
		indexed = []interface{}{ev.Seq}
		values, err = packValues(ev.Symbol, ownerArg(ev.Owner), sideArg(ev.Side), bigArg(ev.Amount), ev.LimitPrice)
	case model.IntentSettledData:
		name = "IntentSettled"
		indexed = []interface{}{ev.Seq}
		values, err = packValues(ev.Symbol, bigArg(ev.Fill), bigArg(ev.AmountOut), bigArg(ev.Remaining), statusArg(ev.Status))
	case model.GraduatedData:
		name = "Graduated"
		values, err = packValues(ev.Symbol, bigArg(ev.WlinReserve))
	default:
		return model.EventRecord{}, fmt.Errorf("unsupported event type %T", event)
	}
	if err != nil {
		return model.EventRecord{}, fmt.Errorf("%s: %w", name, err)
	}

	abiEvent := e.engineABI.Events[name]
	data, err := abiEvent.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		return model.EventRecord{}, fmt.Errorf("pack %s: %w", name, err)
	}

	topics := []string{abiEvent.ID.Hex()}
	for _, value := range indexed {
		hashes, err := abi.MakeTopics([]interface{}{value})
		if err != nil {
			return model.EventRecord{}, fmt.Errorf("topic %s: %w", name, err)
		}
		topics = append(topics, hashes[0][0].Hex())
	}

	return model.EventRecord{
		Height: height,
		Index:  index,
		App:    app,
		Name:   name,
		Topics: topics,
		Data:   hexutil.Encode(data),
	}, nil
}

// argument converters record the first failure; packValues reports it.
type argError struct{ err error }

func packValues(args ...interface{}) ([]interface{}, error) {
	for _, arg := range args {
		if failed, ok := arg.(argError); ok {
			return nil, failed.err
		}
	}
	return args, nil
}

func bigArg(attos string) interface{} {
	v, ok := new(big.Int).SetString(attos, 10)
	if !ok || v.Sign() < 0 {
		return argError{fmt.Errorf("invalid amount %q", attos)}
	}
	return v
}

func ownerArg(owner string) interface{} {
	data, err := hexutil.Decode(owner)
	if err != nil {
		return argError{fmt.Errorf("invalid owner %q: %w", owner, err)}
	}
	return data
}

func sideArg(side string) interface{} {
	var s model.Side
	if err := s.UnmarshalText([]byte(side)); err != nil {
		return argError{err}
	}
	return uint8(s)
}

func statusArg(status string) interface{} {
	var s model.IntentStatus
	if err := s.UnmarshalText([]byte(status)); err != nil {
		return argError{err}
	}
	return uint8(s)
}
