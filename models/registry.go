package models

import (
	"fmt"
	"sort"

	"blackbox/internal/engine"

	"gopkg.in/yaml.v3"
)

// ModelRef names a registered model and carries its raw YAML parameters,
// decoded into the model's own config struct at build time.
type ModelRef struct {
	Name   string    `yaml:"name"`
	Params yaml.Node `yaml:"params"`
}

// Config selects one model per pipeline stage.
type Config struct {
	Alpha     ModelRef `yaml:"alpha"`
	Risk      ModelRef `yaml:"risk"`
	Cost      ModelRef `yaml:"cost"`
	Portfolio ModelRef `yaml:"portfolio"`
}

type (
	AlphaFactory     func(params *yaml.Node) (engine.AlphaModel, error)
	RiskFactory      func(params *yaml.Node) (engine.RiskModel, error)
	CostFactory      func(params *yaml.Node) (engine.CostModel, error)
	PortfolioFactory func(params *yaml.Node) (engine.PortfolioModel, error)
)

var (
	alphaFactories     = map[string]AlphaFactory{}
	riskFactories      = map[string]RiskFactory{}
	costFactories      = map[string]CostFactory{}
	portfolioFactories = map[string]PortfolioFactory{}
)

// Registration happens from init funcs in this package; there is no
// filesystem discovery. An unknown name is a startup error that lists what
// is registered.

func RegisterAlpha(name string, f AlphaFactory)         { alphaFactories[name] = f }
func RegisterRisk(name string, f RiskFactory)           { riskFactories[name] = f }
func RegisterCost(name string, f CostFactory)           { costFactories[name] = f }
func RegisterPortfolio(name string, f PortfolioFactory) { portfolioFactories[name] = f }

// Build resolves the configured model names against the registry and
// constructs each stage with its decoded parameters.
func Build(cfg Config) (engine.Models, error) {
	var m engine.Models

	alphaF, ok := alphaFactories[cfg.Alpha.Name]
	if !ok {
		return m, unknownModel("alpha", cfg.Alpha.Name, alphaNames())
	}
	riskF, ok := riskFactories[cfg.Risk.Name]
	if !ok {
		return m, unknownModel("risk", cfg.Risk.Name, riskNames())
	}
	costF, ok := costFactories[cfg.Cost.Name]
	if !ok {
		return m, unknownModel("cost", cfg.Cost.Name, costNames())
	}
	portfolioF, ok := portfolioFactories[cfg.Portfolio.Name]
	if !ok {
		return m, unknownModel("portfolio", cfg.Portfolio.Name, portfolioNames())
	}

	var err error
	if m.Alpha, err = alphaF(&cfg.Alpha.Params); err != nil {
		return m, fmt.Errorf("build alpha %q: %w", cfg.Alpha.Name, err)
	}
	if m.Risk, err = riskF(&cfg.Risk.Params); err != nil {
		return m, fmt.Errorf("build risk %q: %w", cfg.Risk.Name, err)
	}
	if m.Cost, err = costF(&cfg.Cost.Params); err != nil {
		return m, fmt.Errorf("build cost %q: %w", cfg.Cost.Name, err)
	}
	if m.Portfolio, err = portfolioF(&cfg.Portfolio.Params); err != nil {
		return m, fmt.Errorf("build portfolio %q: %w", cfg.Portfolio.Name, err)
	}
	return m, nil
}

// decodeParams fills out from the raw params node, leaving out untouched when
// no params were given so struct defaults survive.
func decodeParams(params *yaml.Node, out any) error {
	if params == nil || params.IsZero() {
		return nil
	}
	return params.Decode(out)
}

func unknownModel(stage, name string, known []string) error {
	return fmt.Errorf("unknown %s model %q, registered: %v", stage, name, known)
}

func alphaNames() []string     { return sortedKeys(alphaFactories) }
func riskNames() []string      { return sortedKeys(riskFactories) }
func costNames() []string      { return sortedKeys(costFactories) }
func portfolioNames() []string { return sortedKeys(portfolioFactories) }

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
