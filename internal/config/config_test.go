package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Mode: "debug"},
			Forecast: ForecastConfig{Horizon: 30, MaxPeriods: 365},
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Forecast.Horizon = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Forecast.Horizon = 400
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Forecast.MaxPeriods = 0
	cfg.Forecast.Horizon = 400
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Auth.Enabled = true
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Server.Mode = "release"
	cfg.JWT.Secret = "short"
	assert.Error(t, cfg.Validate())
}
