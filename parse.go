// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package datalake

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Record is the shape every Source in this repository produces: one decoded
// JSON object.
type Record = map[string]interface{}

func asRecord(rec interface{}) (Record, error) {
	switch r := rec.(type) {
	case map[string]interface{}:
		return r, nil
	default:
		return nil, errors.Errorf("expected a JSON object but got %T", rec)
	}
}

// lookup returns the value of the first of keys which is present and not null.
func lookup(rec Record, keys ...string) (val interface{}, key string) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v, k
		}
	}
	return nil, keys[0]
}

// stringField returns the value at the first present key as a string. Numbers
// are formatted without exponent so that an id written as 8 and one written as
// "8" come out the same.
func stringField(rec Record, keys ...string) (string, error) {
	v, key := lookup(rec, keys...)
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", errors.Errorf("field '%s': can't use %T as string", key, v)
	}
}

// floatField returns nil when none of keys holds a value. Numeric strings are
// accepted, the empty string counts as missing.
func floatField(rec Record, keys ...string) (*float64, error) {
	v, key := lookup(rec, keys...)
	var f float64
	var err error
	switch val := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = val
	case json.Number:
		f, err = val.Float64()
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		f, err = strconv.ParseFloat(s, 64)
	default:
		return nil, errors.Errorf("field '%s': can't use %T as number", key, v)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "field '%s'", key)
	}
	return &f, nil
}

// intField returns 0 when none of keys holds a value.
func intField(rec Record, keys ...string) (int64, error) {
	v, key := lookup(rec, keys...)
	switch val := v.(type) {
	case nil:
		return 0, nil
	case float64:
		if val != math.Trunc(val) {
			return 0, errors.Errorf("field '%s': %v is not an integer", key, val)
		}
		if val < math.MinInt64 || val >= math.MaxInt64 {
			return 0, errors.Errorf("field '%s': %v is out of range", key, val)
		}
		return int64(val), nil
	case json.Number:
		i, err := val.Int64()
		return i, errors.Wrapf(err, "field '%s'", key)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		return i, errors.Wrapf(err, "field '%s'", key)
	default:
		return 0, errors.Errorf("field '%s': can't use %T as integer", key, v)
	}
}

// fieldReader accumulates the first error so record parsers can read every
// field and check once.
type fieldReader struct {
	rec Record
	err error
}

func (f *fieldReader) str(keys ...string) string {
	if f.err != nil {
		return ""
	}
	var s string
	s, f.err = stringField(f.rec, keys...)
	return s
}

func (f *fieldReader) float(keys ...string) *float64 {
	if f.err != nil {
		return nil
	}
	var v *float64
	v, f.err = floatField(f.rec, keys...)
	return v
}

func (f *fieldReader) int(keys ...string) int64 {
	if f.err != nil {
		return 0
	}
	var v int64
	v, f.err = intField(f.rec, keys...)
	return v
}

func (f *fieldReader) int32(keys ...string) int32 {
	v := f.int(keys...)
	if f.err == nil && (v < math.MinInt32 || v > math.MaxInt32) {
		f.err = errors.Errorf("field '%s': %d is out of range", keys[0], v)
		return 0
	}
	return int32(v)
}
