package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Debug().Msg("hidden")
	assert.Zero(t, buf.Len(), "debug is off by default")

	log.Info().Str("lp_number", "LP00000001").Msg("license plate created")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "LP00000001", line["lp_number"])
	assert.Contains(t, line, "time")
	assert.Contains(t, line, "caller")
}

func TestNew_Debug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true)

	log.Debug().Msg("split preview")
	assert.Contains(t, buf.String(), "split preview")
	assert.False(t, json.Valid(buf.Bytes()), "debug output is for humans")
}
