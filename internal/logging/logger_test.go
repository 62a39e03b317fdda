package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { SetGlobalLogger(zerolog.Nop()) })

	var buf bytes.Buffer
	require.NoError(t, Configure(&buf, "info", "json"))

	Debug().Msg("hidden")
	Info().Str("component", "index").Msg("visible")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"component":"index"`)
	require.Contains(t, out, `"message":"visible"`)
}

func TestConfigureRejectsUnknownLevel(t *testing.T) {
	require.Error(t, Configure(nil, "loud", "json"))
}
