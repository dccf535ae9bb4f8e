/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveIdentity(t *testing.T) {
	tests := []struct {
		name string
		md   RequestMetadata
		want string
	}{
		{
			name: "principal wins",
			md:   RequestMetadata{PrincipalID: "42", ForwardedFor: "1.2.3.4", RemoteAddr: "10.0.0.1"},
			want: "42",
		},
		{
			name: "forwarded-for with whitespace removed",
			md:   RequestMetadata{ForwardedFor: " 1.2.3.4 , 5.6.7.8", RemoteAddr: "10.0.0.1"},
			want: "1.2.3.4,5.6.7.8",
		},
		{
			name: "blank forwarded-for falls back to remote address",
			md:   RequestMetadata{ForwardedFor: " \t", RemoteAddr: "10.0.0.1"},
			want: "10.0.0.1",
		},
		{
			name: "nothing known",
			md:   RequestMetadata{},
			want: UnknownIdentity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ResolveIdentity(tt.md))
		})
	}
}
