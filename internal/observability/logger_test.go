package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerSuppressesBelowMinSeverity(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, SeverityWarning)

	log.Debug("debug %d", 1)
	log.Info("info %d", 2)
	require.Empty(t, buf.String())

	log.Warning("warning %d", 3)
	require.Contains(t, buf.String(), "[WARNING] warning 3")

	log.Error("error %d", 4)
	require.Contains(t, buf.String(), "[ERROR] error 4")
}
