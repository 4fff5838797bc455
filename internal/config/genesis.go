package config

import (
	"fmt"

	"github.com/spf13/viper"

	"intentBook/internal/amount"
	"intentBook/internal/engine"
	"intentBook/internal/faucet"
	"intentBook/internal/host"
	"intentBook/internal/ledger"
	"intentBook/internal/model"
)

// EngineGenesis configures the engine application.
type EngineGenesis struct {
	AppID          string `mapstructure:"app-id"`
	Operator       string `mapstructure:"operator"`
	TrustedCaller  string `mapstructure:"trusted-caller"`
	FeeDestination string `mapstructure:"fee-destination"`
	WlinApp        string `mapstructure:"wlin-app"`
}

// TokenGenesis configures one token application and its initial balances.
type TokenGenesis struct {
	AppID         string            `mapstructure:"app-id"`
	Ticker        string            `mapstructure:"ticker"`
	TrustedCaller string            `mapstructure:"trusted-caller"`
	Minter        string            `mapstructure:"minter"`
	MinterApp     string            `mapstructure:"minter-app"`
	Balances      map[string]string `mapstructure:"balances"`
}

// FaucetGenesis configures the optional faucet. Without an app id no faucet runs.
type FaucetGenesis struct {
	AppID    string `mapstructure:"app-id"`
	Operator string `mapstructure:"operator"`
	Cap      string `mapstructure:"cap"`
}

// Genesis is the application layout read from the engine, tokens and faucet sections.
type Genesis struct {
	Engine EngineGenesis  `mapstructure:"engine"`
	Tokens []TokenGenesis `mapstructure:"tokens"`
	Faucet FaucetGenesis  `mapstructure:"faucet"`
}

func loadGenesis(v *viper.Viper) (Genesis, error) {
	var gen Genesis
	if err := v.UnmarshalKey("engine", &gen.Engine); err != nil {
		return Genesis{}, fmt.Errorf("parse engine section: %w", err)
	}
	if err := v.UnmarshalKey("tokens", &gen.Tokens); err != nil {
		return Genesis{}, fmt.Errorf("parse tokens section: %w", err)
	}
	if err := v.UnmarshalKey("faucet", &gen.Faucet); err != nil {
		return Genesis{}, fmt.Errorf("parse faucet section: %w", err)
	}
	return gen, nil
}

// Host validates the genesis and returns the host parameters and initial state. A token
// without a trusted caller trusts the engine. The faucet defaults to the engine operator and
// becomes the minter application of the wLin token unless that token names its own.
func (g Genesis) Host() (host.Params, host.Genesis, error) {
	engineApp, err := model.ParseAppID(g.Engine.AppID)
	if err != nil {
		return host.Params{}, host.Genesis{}, fmt.Errorf("engine.app-id: %w", err)
	}
	operator, err := model.ParseOwner(g.Engine.Operator)
	if err != nil {
		return host.Params{}, host.Genesis{}, fmt.Errorf("engine.operator: %w", err)
	}
	trusted, err := optionalAppID(g.Engine.TrustedCaller)
	if err != nil {
		return host.Params{}, host.Genesis{}, fmt.Errorf("engine.trusted-caller: %w", err)
	}
	wlinApp, err := optionalAppID(g.Engine.WlinApp)
	if err != nil {
		return host.Params{}, host.Genesis{}, fmt.Errorf("engine.wlin-app: %w", err)
	}
	feeDest, err := optionalOwner(g.Engine.FeeDestination)
	if err != nil {
		return host.Params{}, host.Genesis{}, fmt.Errorf("engine.fee-destination: %w", err)
	}

	params := host.Params{
		Engine: engine.Params{App: engineApp, Operator: operator, TrustedCaller: trusted},
	}
	initial := host.Genesis{
		WlinApp:        wlinApp,
		FeeDestination: feeDest,
		Balances:       make(map[model.AppID]map[model.Owner]amount.Amount, len(g.Tokens)),
	}

	seen := make(map[model.AppID]bool, len(g.Tokens))
	for i, tok := range g.Tokens {
		p, balances, err := tok.parse(engineApp)
		if err != nil {
			return host.Params{}, host.Genesis{}, fmt.Errorf("tokens[%d]: %w", i, err)
		}
		if p.App == engineApp || seen[p.App] {
			return host.Params{}, host.Genesis{}, fmt.Errorf("tokens[%d]: duplicate app id %s", i, p.App)
		}
		seen[p.App] = true
		params.Tokens = append(params.Tokens, p)
		initial.Balances[p.App] = balances
	}
	if wlinApp != "" && !seen[wlinApp] {
		return host.Params{}, host.Genesis{}, fmt.Errorf("engine.wlin-app %s is not a configured token", wlinApp)
	}

	if g.Faucet.AppID != "" {
		fp, limit, err := g.Faucet.parse(operator)
		if err != nil {
			return host.Params{}, host.Genesis{}, fmt.Errorf("faucet: %w", err)
		}
		if fp.App == engineApp || seen[fp.App] {
			return host.Params{}, host.Genesis{}, fmt.Errorf("faucet: duplicate app id %s", fp.App)
		}
		if wlinApp == "" {
			return host.Params{}, host.Genesis{}, fmt.Errorf("faucet: engine.wlin-app is required")
		}
		for i := range params.Tokens {
			if params.Tokens[i].App == wlinApp && params.Tokens[i].MinterApp == "" {
				params.Tokens[i].MinterApp = fp.App
			}
		}
		params.Faucet = &fp
		initial.FaucetCap = limit
	}
	return params, initial, nil
}

func (f FaucetGenesis) parse(defaultOperator model.Owner) (faucet.Params, amount.Amount, error) {
	app, err := model.ParseAppID(f.AppID)
	if err != nil {
		return faucet.Params{}, amount.Zero, fmt.Errorf("app-id: %w", err)
	}
	operator, err := optionalOwner(f.Operator)
	if err != nil {
		return faucet.Params{}, amount.Zero, fmt.Errorf("operator: %w", err)
	}
	if operator == "" {
		operator = defaultOperator
	}
	limit := amount.Zero
	if f.Cap != "" {
		if limit, err = amount.Parse(f.Cap); err != nil {
			return faucet.Params{}, amount.Zero, fmt.Errorf("cap: %w", err)
		}
	}
	return faucet.Params{App: app, Operator: operator}, limit, nil
}

func (t TokenGenesis) parse(engineApp model.AppID) (ledger.Params, map[model.Owner]amount.Amount, error) {
	app, err := model.ParseAppID(t.AppID)
	if err != nil {
		return ledger.Params{}, nil, fmt.Errorf("app-id: %w", err)
	}
	if t.Ticker == "" {
		return ledger.Params{}, nil, fmt.Errorf("ticker is required")
	}
	trusted, err := optionalAppID(t.TrustedCaller)
	if err != nil {
		return ledger.Params{}, nil, fmt.Errorf("trusted-caller: %w", err)
	}
	if trusted == "" {
		trusted = engineApp
	}
	minter, err := optionalOwner(t.Minter)
	if err != nil {
		return ledger.Params{}, nil, fmt.Errorf("minter: %w", err)
	}
	minterApp, err := optionalAppID(t.MinterApp)
	if err != nil {
		return ledger.Params{}, nil, fmt.Errorf("minter-app: %w", err)
	}

	balances := make(map[model.Owner]amount.Amount, len(t.Balances))
	for rawOwner, rawAmount := range t.Balances {
		owner, err := model.ParseOwner(rawOwner)
		if err != nil {
			return ledger.Params{}, nil, fmt.Errorf("balances: %w", err)
		}
		value, err := amount.Parse(rawAmount)
		if err != nil {
			return ledger.Params{}, nil, fmt.Errorf("balance of %s: %w", owner, err)
		}
		balances[owner] = value
	}

	return ledger.Params{App: app, Ticker: t.Ticker, TrustedCaller: trusted, Minter: minter, MinterApp: minterApp}, balances, nil
}

func optionalAppID(input string) (model.AppID, error) {
	if input == "" {
		return "", nil
	}
	return model.ParseAppID(input)
}

func optionalOwner(input string) (model.Owner, error) {
	if input == "" {
		return "", nil
	}
	return model.ParseOwner(input)
}
