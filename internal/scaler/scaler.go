// Package scaler rewrites price values that follow a fixed key inside text files.
//
// The file is treated as opaque text: only the matched "<key> <digits>" spans
// change, every other byte is copied through in its original order.
package scaler

import (
	"bytes"
	"errors"
	"os"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"tcprice/internal/pricing"
	tcerrors "tcprice/pkg/errors"
)

// DefaultKey anchors every price the tool rewrites.
const DefaultKey = "Telecrystal:"

// Options configures a Scaler.
type Options struct {
	Key        string // literal text preceding the price; DefaultKey when empty
	Multiplier decimal.Decimal
	Rounding   pricing.Rounding
}

// Result describes what happened to one file.
type Result struct {
	Path    string `json:"path"`
	Matches int    `json:"matches"`
	Updated bool   `json:"updated"`
}

// Scaler applies a multiplier to every keyed price in a text buffer.
type Scaler struct {
	key        string
	pattern    *regexp.Regexp
	multiplier decimal.Decimal
	rounding   pricing.Rounding
}

// New creates a Scaler. The multiplier must pass pricing.CheckMultiplier.
func New(opts Options) (*Scaler, error) {
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	if err := pricing.CheckMultiplier(opts.Multiplier); err != nil {
		return nil, err
	}
	return &Scaler{
		key:        key,
		pattern:    regexp.MustCompile(regexp.QuoteMeta(key) + `\s*([0-9]+)`),
		multiplier: opts.Multiplier,
		rounding:   opts.Rounding,
	}, nil
}

// Key returns the literal key the scaler searches for.
func (s *Scaler) Key() string { return s.key }

// Rewrite returns text with every keyed price scaled, and the number of
// replacements made. On error the input is not transformed at all.
func (s *Scaler) Rewrite(text []byte) ([]byte, int, error) {
	matches := s.pattern.FindAllSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, 0, nil
	}

	var out bytes.Buffer
	out.Grow(len(text) + len(matches)*4)

	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		digits := text[m[2]:m[3]]

		price, err := strconv.ParseInt(string(digits), 10, 64)
		if err != nil {
			return nil, 0, tcerrors.NewParseError(string(digits), err)
		}
		scaled, err := pricing.Scale(price, s.multiplier, s.rounding)
		if err != nil {
			return nil, 0, err
		}

		out.Write(text[last:start])
		out.WriteString(s.key)
		out.WriteByte(' ')
		out.WriteString(strconv.FormatInt(scaled, 10))
		last = end
	}
	out.Write(text[last:])

	return out.Bytes(), len(matches), nil
}

// ScaleFile rewrites the file at path in place. Files without a match are
// left untouched; they are read but never opened for writing.
func (s *Scaler) ScaleFile(path string) (Result, error) {
	res := Result{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return res, tcerrors.NewFileError(tcerrors.ErrCodeReadFailed, path, err)
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return res, tcerrors.NewFileError(tcerrors.ErrCodeReadFailed, path, err)
	}

	out, n, err := s.Rewrite(text)
	if err != nil {
		var se *tcerrors.ScaleError
		if errors.As(err, &se) {
			return res, se.WithPath(path)
		}
		return res, err
	}
	res.Matches = n
	if n == 0 {
		return res, nil
	}

	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return res, tcerrors.NewFileError(tcerrors.ErrCodeWriteFailed, path, err)
	}
	res.Updated = true
	return res, nil
}
