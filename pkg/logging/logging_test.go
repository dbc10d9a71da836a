package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_JSONCarriesService(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		_ = Configure("info", "text")
	})

	require.NoError(t, Configure("debug", "json"))
	Logger().WithField("entry_id", "e1").Warn("audit write failed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "fincore-authz", line["service"])
	assert.Equal(t, "e1", line["entry_id"])
	assert.Equal(t, logrus.DebugLevel, Logger().GetLevel())
}

func TestConfigure_Rejects(t *testing.T) {
	assert.Error(t, Configure("loud", "text"))
	assert.Error(t, Configure("info", "xml"))
}
