package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vadecode.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, BackendVAAPI, cfg.Backend)
	assert.Equal(t, vadecode.DefaultExtraSurfaces, cfg.ExtraSurfaces)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
backend: nullaccel
implementation: intel-ihd
static_pool: true
extra_surfaces: 6
workers: 4
output_dir: out
nullaccel:
  profiles: [h264-main, h264-high]
  fail_end_every: 5
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, BackendNull, cfg.Backend)
	assert.True(t, cfg.StaticPool)
	assert.Equal(t, 6, cfg.ExtraSurfaces)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.True(t, cfg.Timeline, "unset fields keep their defaults")
	assert.Equal(t, 8192, cfg.Null.MaxWidth)

	null, err := cfg.NullOptions()
	require.NoError(t, err)
	assert.Equal(t, []ports.Profile{ports.ProfileH264Main, ports.ProfileH264High}, null.Profiles)
	assert.Equal(t, ports.ImplementationIntelIHD, null.Implementation)
	assert.Equal(t, 5, null.FailEndEvery)
}

func TestLoadFromFile_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown backend":        "backend: cuda\n",
		"unknown implementation": "implementation: nvidia\n",
		"unknown policy":         "missing_ref_policy: guess\n",
		"negative surfaces":      "extra_surfaces: -1\n",
		"unknown profile":        "nullaccel:\n  profiles: [h264-ultra]\n",
		"malformed yaml":         "backend: [null\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, content))
			assert.Error(t, err)
		})
	}

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDecodeOptions(t *testing.T) {
	cfg := Defaults()

	opts, err := cfg.DecodeOptions(ports.ImplementationIntelIHD)
	require.NoError(t, err)
	assert.Equal(t, vadecode.MissingRefCurrent, opts.Policy)

	opts, err = cfg.DecodeOptions(ports.ImplementationMesaGallium)
	require.NoError(t, err)
	assert.Equal(t, vadecode.MissingRefFail, opts.Policy)

	cfg.Implementation = "intel-ihd"
	opts, err = cfg.DecodeOptions(ports.ImplementationMesaGallium)
	require.NoError(t, err)
	assert.Equal(t, vadecode.MissingRefCurrent, opts.Policy, "configured implementation wins")

	cfg.MissingRefPolicy = "invalid"
	cfg.StaticPool = true
	opts, err = cfg.DecodeOptions(ports.ImplementationIntelIHD)
	require.NoError(t, err)
	assert.Equal(t, vadecode.MissingRefInvalid, opts.Policy, "configured policy wins")
	assert.True(t, opts.StaticPool)
}

func TestToOrchestratorConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Workers = 3
	cfg.FailFast = true

	oc := cfg.ToOrchestratorConfig([]string{"a.mp4"})
	assert.Equal(t, []string{"a.mp4"}, oc.Files)
	assert.Equal(t, 3, oc.Workers)
	assert.True(t, oc.FailFast)

	ro := cfg.ReportOptions()
	assert.Equal(t, cfg.TimelineFrames, ro.TimelineFrames)
	assert.True(t, ro.Timeline)
}
