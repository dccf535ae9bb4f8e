/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"errors"
	"fmt"
	"strings"
)

// Config is the effective throttling of a handler. A nil *Config means the handler is not throttled.
type Config struct {
	Rate  RateSpec
	Scope string
}

// Declaration is what a handler declares about its throttling.
// Zero Rate disables throttling. Empty Scope means the handler name.
// In configuration files Rate is written as text, e.g. "100/m".
type Declaration struct {
	Rate  RateSpec `mapstructure:"rate" yaml:"rate" json:"rate"`
	Scope string `mapstructure:"scope" yaml:"scope,omitempty" json:"scope,omitempty"`
}

// Bind turns a declaration of the named handler into a Config.
// It is meant to run once, when the handler is registered.
func Bind(decl Declaration, handlerName string) (*Config, error) {
	if decl.Rate.IsZero() {
		return nil, nil
	}
	if err := decl.Rate.Validate(); err != nil {
		return nil, fmt.Errorf("bind throttling for handler %q: %w", handlerName, err)
	}
	scope := strings.TrimSpace(decl.Scope)
	if scope == "" {
		scope = handlerName
	}
	if scope == "" {
		return nil, errors.New("bind throttling: neither scope nor handler name is set")
	}
	return &Config{Rate: decl.Rate, Scope: scope}, nil
}

// MustBind is like Bind but panics on error.
func MustBind(decl Declaration, handlerName string) *Config {
	cfg, err := Bind(decl, handlerName)
	if err != nil {
		panic(err)
	}
	return cfg
}
