package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("debug", &buf)

	log.WithField("order_id", "o1").Info("order placed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "order placed", entry["message"])
	assert.Equal(t, "info", entry["severity"])
	assert.Equal(t, "o1", entry["order_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_UnknownLevelIsInfo(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, NewWithOutput("loud", &bytes.Buffer{}).Level)
	assert.Equal(t, logrus.WarnLevel, NewWithOutput("warn", &bytes.Buffer{}).Level)
}
