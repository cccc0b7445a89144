package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSanitizeValidName(t *testing.T) {
	require.Equal(t, "user-auth-system", Sanitize("user-auth-system"))
}

func TestSanitizeUppercaseToLowercase(t *testing.T) {
	require.Equal(t, "user-auth-system", Sanitize("User-Auth-System"))
}

func TestSanitizeSpacesToHyphens(t *testing.T) {
	require.Equal(t, "user-auth-system", Sanitize("user auth system"))
}

func TestSanitizeCollapsesConsecutiveHyphens(t *testing.T) {
	require.Equal(t, "user-auth-system", Sanitize("user--auth---system"))
}

func TestSanitizeStripsLeadingTrailingHyphens(t *testing.T) {
	require.Equal(t, "user-auth", Sanitize("-user-auth-"))
}

func TestSanitizeSpecialCharacters(t *testing.T) {
	require.Equal(t, "user-auth-system", Sanitize("user@auth!system"))
}

func TestSanitizeEmptyReturnsFallback(t *testing.T) {
	require.Equal(t, "unnamed-session", Sanitize(""))
}

func TestSanitizeOnlySpecialCharsReturnsFallback(t *testing.T) {
	require.Equal(t, "unnamed-session", Sanitize("@!#$"))
}

func TestSanitizePreservesUnderscoresAndDigits(t *testing.T) {
	require.Equal(t, "my_session_name", Sanitize("my_session_name"))
	require.Equal(t, "v2-api-update", Sanitize("v2-api-update"))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	for _, raw := range []string{"User Auth!!", "--weird--input--", "이름없는세션", "ok-already"} {
		once := Sanitize(raw)
		require.Equal(t, once, Sanitize(once))
	}
}

func TestDateBucketHasValidFormat(t *testing.T) {
	d := DateBucket(time.Now())
	require.Len(t, d, 8)
}

func TestEnsureUniqueNoConflict(t *testing.T) {
	tmp := t.TempDir()
	require.Equal(t, "my-session", EnsureUnique(tmp, "20250101", "my-session"))
}

func TestEnsureUniqueAppendsSuffixOnConflict(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, ".bear", "20250101", "my-session"), 0o755))
	require.Equal(t, "my-session-2", EnsureUnique(tmp, "20250101", "my-session"))
}

func TestEnsureUniqueSkipsExistingSuffixes(t *testing.T) {
	tmp := t.TempDir()
	dateDir := filepath.Join(tmp, ".bear", "20250101")
	require.NoError(t, os.MkdirAll(filepath.Join(dateDir, "my-session"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dateDir, "my-session-2"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dateDir, "my-session-3"), 0o755))
	require.Equal(t, "my-session-4", EnsureUnique(tmp, "20250101", "my-session"))
}

func TestBuildNamePromptContainsRequirements(t *testing.T) {
	require.Contains(t, BuildNamePrompt("Build a REST API"), "Build a REST API")
}
