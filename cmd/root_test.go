package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

func TestBindFlagsAppliesEnvironment(t *testing.T) {
	t.Setenv("PROSODY_PAUSE_WEIGHTING", "legacy")

	var weighting string
	var concurrency int
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&weighting, "pause-weighting", "", "")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "")

	v := envViper()
	require.NoError(t, bindFlags(cmd, v))

	assert.Equal(t, "legacy", weighting)
	assert.Equal(t, 0, concurrency)
	assert.Equal(t, "legacy", v.GetString("pause-weighting"))
}

func TestBindFlagsKeepsExplicitFlag(t *testing.T) {
	t.Setenv("PROSODY_CONCURRENCY", "8")

	var concurrency int
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "")
	require.NoError(t, cmd.Flags().Set("concurrency", "2"))

	require.NoError(t, bindFlags(cmd, envViper()))
	assert.Equal(t, 2, concurrency)
}

func TestPerformanceTimer(t *testing.T) {
	timer := NewPerformanceTimer()

	assert.Zero(t, timer.EndEvent("never_started"))

	timer.StartEvent("decoding")
	time.Sleep(5 * time.Millisecond)
	d := timer.EndEvent("decoding")

	assert.GreaterOrEqual(t, d, 5*time.Millisecond)
	assert.Equal(t, d, timer.GetDuration("decoding"))
	assert.GreaterOrEqual(t, timer.GetTotalDuration(), d)
	assert.Zero(t, timer.EndEvent("decoding"), "an event ends once")
}
