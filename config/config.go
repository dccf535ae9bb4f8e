/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package config loads configuration for the throttling components from files, readers and environment variables.
package config

// Config is implemented by every configuration object that Loader can fill.
// SetProviderDefaults registers default values, Set reads and validates the final ones.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is implemented by configuration objects whose parameters live under a common key.
type KeyPrefixProvider interface {
	KeyPrefix() string
}

// ProviderFor returns dp scoped to the key prefix of cfg, if it has one.
func ProviderFor(dp DataProvider, cfg interface{}) DataProvider {
	if kp, ok := cfg.(KeyPrefixProvider); ok && kp.KeyPrefix() != "" {
		return NewKeyPrefixedDataProvider(dp, kp.KeyPrefix())
	}
	return dp
}
