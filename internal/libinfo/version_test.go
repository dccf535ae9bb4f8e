/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package libinfo

import (
	"debug/buildinfo"
	"runtime/debug"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestFindModuleVersion(t *testing.T) {
	deps := func(mods ...*debug.Module) *buildinfo.BuildInfo {
		return &buildinfo.BuildInfo{Deps: mods}
	}
	tests := []struct {
		name      string
		buildInfo *buildinfo.BuildInfo
		want      string
	}{
		{"found", deps(&debug.Module{Path: moduleName, Version: "v1.2.3"}), "v1.2.3"},
		{"major version suffix", deps(&debug.Module{Path: moduleName + "/v2", Version: "v2.0.0"}), "v2.0.0"},
		{"similar name", deps(&debug.Module{Path: moduleName + "-extra", Version: "v1.0.0"}), ""},
		{"not found", deps(&debug.Module{Path: "github.com/other/module", Version: "v1.0.0"}), ""},
		{"nil build info", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, findModuleVersion(tt.buildInfo, moduleName))
		})
	}
}

func TestAddPrometheusLibVersionLabel(t *testing.T) {
	labels := prometheus.Labels{"service": "demo"}
	got := AddPrometheusLibVersionLabel(labels)
	require.Equal(t, "demo", got["service"])
	require.NotEmpty(t, got[PrometheusLibVersionLabel])
	require.Len(t, labels, 1)

	require.Len(t, AddPrometheusLibVersionLabel(nil), 1)
}
