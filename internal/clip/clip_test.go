package clip

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAllPrefersNative(t *testing.T) {
	orig := nativeWriteAll
	defer func() { nativeWriteAll = orig }()
	nativeWriteAll = func(string) error { return nil }

	res, err := WriteAll("hello")
	require.NoError(t, err)
	require.Equal(t, MethodNative, res.Method)
}

func TestWriteAllFallsBackToOSC52(t *testing.T) {
	origNative, origOSC := nativeWriteAll, osc52WriteAll
	defer func() { nativeWriteAll, osc52WriteAll = origNative, origOSC }()
	nativeWriteAll = func(string) error { return errors.New("no clipboard") }
	osc52WriteAll = func(string) error { return nil }

	res, err := WriteAll("hello")
	require.NoError(t, err)
	require.Equal(t, MethodOSC52, res.Method)
}

func TestWriteAllFallsBackToFile(t *testing.T) {
	origNative, origOSC := nativeWriteAll, osc52WriteAll
	defer func() { nativeWriteAll, osc52WriteAll = origNative, origOSC }()
	nativeWriteAll = func(string) error { return errors.New("no clipboard") }
	osc52WriteAll = func(string) error { return errors.New("no terminal") }

	res, err := WriteAll("hello")
	require.NoError(t, err)
	require.Equal(t, MethodFile, res.Method)

	data, err := os.ReadFile(res.FilePath)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}
