package scaler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcprice/internal/pricing"
	tcerrors "tcprice/pkg/errors"
)

func newScaler(t *testing.T, multiplier string) *Scaler {
	t.Helper()
	s, err := New(Options{Multiplier: decimal.RequireFromString(multiplier)})
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew(t *testing.T) {
	s, err := New(Options{Multiplier: decimal.NewFromInt(2)})
	require.NoError(t, err)
	assert.Equal(t, DefaultKey, s.Key())

	s, err = New(Options{Key: "Price:", Multiplier: decimal.NewFromInt(2)})
	require.NoError(t, err)
	assert.Equal(t, "Price:", s.Key())

	_, err = New(Options{Multiplier: decimal.Zero})
	assert.Equal(t, tcerrors.ErrCodeInvalidMultiplier, tcerrors.CodeOf(err))

	_, err = New(Options{Multiplier: decimal.New(1, 100000000)})
	assert.Equal(t, tcerrors.ErrCodeInvalidMultiplier, tcerrors.CodeOf(err))
}

func TestScaler_Rewrite(t *testing.T) {
	tests := []struct {
		name       string
		multiplier string
		input      string
		expected   string
		matches    int
	}{
		{
			name:       "single",
			multiplier: "5",
			input:      "Telecrystal: 100",
			expected:   "Telecrystal: 500",
			matches:    1,
		},
		{
			name:       "multiple_on_separate_lines",
			multiplier: "2.5",
			input:      "cost: Telecrystal: 10\nother: Telecrystal: 20",
			expected:   "cost: Telecrystal: 25\nother: Telecrystal: 50",
			matches:    2,
		},
		{
			name:       "no_space_is_normalized",
			multiplier: "5",
			input:      "Telecrystal:100",
			expected:   "Telecrystal: 500",
			matches:    1,
		},
		{
			name:       "extra_whitespace_is_normalized",
			multiplier: "2",
			input:      "Telecrystal: \t 7\n",
			expected:   "Telecrystal: 14\n",
			matches:    1,
		},
		{
			name:       "whitespace_may_span_newline",
			multiplier: "2",
			input:      "Telecrystal:\n  3",
			expected:   "Telecrystal: 6",
			matches:    1,
		},
		{
			name:       "no_match",
			multiplier: "5",
			input:      "name: thing\nprice:\n  Telecrystal: free\n",
			expected:   "name: thing\nprice:\n  Telecrystal: free\n",
			matches:    0,
		},
		{
			name:       "surrounding_yaml_preserved",
			multiplier: "3",
			input:      "- type: listing\n  id: Foo\n  cost:\n    Telecrystal: 4 # four\n  categories:\n  - UplinkWeapons\n",
			expected:   "- type: listing\n  id: Foo\n  cost:\n    Telecrystal: 12 # four\n  categories:\n  - UplinkWeapons\n",
			matches:    1,
		},
		{
			name:       "only_leading_digits_are_scaled",
			multiplier: "2",
			input:      "Telecrystal: 12.5",
			expected:   "Telecrystal: 24.5",
			matches:    1,
		},
		{
			name:       "leading_zeros",
			multiplier: "2",
			input:      "Telecrystal: 007",
			expected:   "Telecrystal: 14",
			matches:    1,
		},
		{
			name:       "case_sensitive_key",
			multiplier: "2",
			input:      "telecrystal: 5",
			expected:   "telecrystal: 5",
			matches:    0,
		},
		{
			name:       "floor",
			multiplier: "0.5",
			input:      "Telecrystal: 3",
			expected:   "Telecrystal: 1",
			matches:    1,
		},
		{
			name:       "empty",
			multiplier: "2",
			input:      "",
			expected:   "",
			matches:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScaler(t, tt.multiplier)
			out, n, err := s.Rewrite([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
			assert.Equal(t, tt.matches, n)
		})
	}
}

func TestScaler_Rewrite_CustomKeyIsLiteral(t *testing.T) {
	s, err := New(Options{Key: "Cost.(TC):", Multiplier: decimal.NewFromInt(2)})
	require.NoError(t, err)

	out, n, err := s.Rewrite([]byte("Cost.(TC): 4\nCostX(TC): 4\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Cost.(TC): 8\nCostX(TC): 4\n", string(out))
}

func TestScaler_Rewrite_Rounding(t *testing.T) {
	s, err := New(Options{Multiplier: decimal.RequireFromString("1.5"), Rounding: pricing.RoundCeil})
	require.NoError(t, err)

	out, _, err := s.Rewrite([]byte("Telecrystal: 3"))
	require.NoError(t, err)
	assert.Equal(t, "Telecrystal: 5", string(out))
}

func TestScaler_Rewrite_Errors(t *testing.T) {
	s := newScaler(t, "2")

	_, _, err := s.Rewrite([]byte("Telecrystal: 99999999999999999999"))
	assert.Equal(t, tcerrors.ErrCodeParseFailed, tcerrors.CodeOf(err))

	_, _, err = s.Rewrite([]byte("Telecrystal: 1\nTelecrystal: 9223372036854775807"))
	assert.Equal(t, tcerrors.ErrCodeOverflow, tcerrors.CodeOf(err))
}

func TestScaler_ScaleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "listing.yml", "cost: Telecrystal: 10\nother: Telecrystal: 20")

	res, err := newScaler(t, "2.5").ScaleFile(path)
	require.NoError(t, err)
	assert.Equal(t, Result{Path: path, Matches: 2, Updated: true}, res)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cost: Telecrystal: 25\nother: Telecrystal: 50", string(got))
}

func TestScaler_ScaleFile_PreservesMode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "listing.yml", "Telecrystal: 1")
	require.NoError(t, os.Chmod(path, 0o600))

	_, err := newScaler(t, "3").ScaleFile(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestScaler_ScaleFile_NoMatchIsNotWritten(t *testing.T) {
	dir := t.TempDir()
	content := "name: plain\nvalue: 12\n"
	path := writeFile(t, dir, "plain.yml", content)

	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, past, past))

	res, err := newScaler(t, "5").ScaleFile(path)
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Zero(t, res.Matches)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past), "no-match file must keep its mtime")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestScaler_ScaleFile_NotIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "listing.yml", "Telecrystal: 10")
	s := newScaler(t, "2")

	_, err := s.ScaleFile(path)
	require.NoError(t, err)
	_, err = s.ScaleFile(path)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	// Each pass multiplies again; two passes with 2 give 4x.
	assert.Equal(t, "Telecrystal: 40", string(got))
}

func TestScaler_ScaleFile_ParseErrorLeavesFile(t *testing.T) {
	dir := t.TempDir()
	content := "Telecrystal: 5\nTelecrystal: 99999999999999999999\n"
	path := writeFile(t, dir, "broken.yml", content)

	res, err := newScaler(t, "2").ScaleFile(path)
	require.Error(t, err)
	assert.False(t, res.Updated)

	var se *tcerrors.ScaleError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, tcerrors.ErrCodeParseFailed, se.Code)
	assert.Equal(t, path, se.Path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestScaler_ScaleFile_ReadErrors(t *testing.T) {
	dir := t.TempDir()
	s := newScaler(t, "2")

	_, err := s.ScaleFile(filepath.Join(dir, "missing.yml"))
	assert.Equal(t, tcerrors.ErrCodeReadFailed, tcerrors.CodeOf(err))

	sub := filepath.Join(dir, "dir.yml")
	require.NoError(t, os.Mkdir(sub, 0o755))
	_, err = s.ScaleFile(sub)
	assert.Equal(t, tcerrors.ErrCodeReadFailed, tcerrors.CodeOf(err))
}

func TestScaler_ScaleFile_WriteError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	dir := t.TempDir()
	path := writeFile(t, dir, "locked.yml", "Telecrystal: 1")
	require.NoError(t, os.Chmod(path, 0o444))

	_, err := newScaler(t, "2").ScaleFile(path)
	assert.Equal(t, tcerrors.ErrCodeWriteFailed, tcerrors.CodeOf(err))
}
