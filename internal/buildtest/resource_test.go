package buildtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		percent float64
		want    Severity
	}{
		{50.0, SeverityNone},
		{79.9, SeverityNone},
		{80.0, SeverityWarning},
		{89.9, SeverityWarning},
		{90.0, SeverityCritical},
		{99.0, SeverityCritical},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, classify(tc.percent))
	}
}

func TestRunMonitoredWithoutCallbackMatchesRun(t *testing.T) {
	dir := t.TempDir()
	res, err := RunMonitored(context.Background(), dir, []string{"true"}, nil)
	require.NoError(t, err)
	require.True(t, res.Succeeded())
}
