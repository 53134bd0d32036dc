package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func paramsNode(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &node))
	return &node
}

func TestBuildResolvesRegisteredModels(t *testing.T) {
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(`
alpha:
  name: momentum
  params:
    short_period: 10
    long_period: 30
risk:
  name: position_limit
cost:
  name: fixed
portfolio:
  name: volatility_scaled
`), &cfg))

	m, err := Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, "momentum", m.Alpha.Name())
	assert.Equal(t, "position_limit", m.Risk.Name())
	assert.Equal(t, "fixed", m.Cost.Name())
	assert.Equal(t, "volatility_scaled", m.Portfolio.Name())
}

func TestBuildUnknownModelListsRegistered(t *testing.T) {
	cfg := Config{
		Alpha:     ModelRef{Name: "does_not_exist"},
		Risk:      ModelRef{Name: "position_limit"},
		Cost:      ModelRef{Name: "fixed"},
		Portfolio: ModelRef{Name: "equal_weight"},
	}
	_, err := Build(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does_not_exist")
	assert.Contains(t, err.Error(), "momentum")
}

func TestBuildRejectsInvalidParams(t *testing.T) {
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(`
alpha:
  name: momentum
  params:
    short_period: 60
    long_period: 20
risk:
  name: position_limit
cost:
  name: fixed
portfolio:
  name: equal_weight
`), &cfg))

	_, err := Build(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short_period")
}

func TestBuildDefaultsWithoutParams(t *testing.T) {
	cfg := Config{
		Alpha:     ModelRef{Name: "mean_reversion"},
		Risk:      ModelRef{Name: "volatility_cap"},
		Cost:      ModelRef{Name: "none"},
		Portfolio: ModelRef{Name: "equal_weight"},
	}
	m, err := Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mean_reversion", m.Alpha.Name())
	assert.Equal(t, "none", m.Cost.Name())
}
