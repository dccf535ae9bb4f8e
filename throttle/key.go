/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

const windowKeyPrefix = "throttle:"

// WindowKey returns the store key of the history of identity within scope.
func WindowKey(scope, identity string) string {
	return windowKeyPrefix + scope + ":" + identity
}
