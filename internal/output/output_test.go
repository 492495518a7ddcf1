/*
 * output_test.go, part of gotrr.
 *
 * Copyright 2024 The goTRR Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameRow struct {
	Step int     `json:"step" yaml:"step"`
	Time float64 `json:"time" yaml:"time"`
}

type frameRows []frameRow

func (f frameRows) Headers() []string { return []string{"step", "time"} }
func (f frameRows) Rows() [][]string {
	return [][]string{{"0", "0.000"}, {"10", "0.020"}}
}

type summary struct {
	Atoms int `json:"atoms" yaml:"atoms"`
}

func (s summary) Pairs() Pairs { return Pairs{{"atoms", "1234"}} }

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "table", want: FormatTable},
		{input: "", want: FormatTable},
		{input: "JSON", want: FormatJSON},
		{input: " yml ", want: FormatYAML},
		{input: "xml", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestPrinter(t *testing.T) {
	data := frameRows{{Step: 0, Time: 0}, {Step: 10, Time: 0.02}}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable).Print(data))
	assert.Contains(t, buf.String(), "STEP")
	assert.Contains(t, buf.String(), "0.020")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatJSON).Print(data))
	assert.Contains(t, buf.String(), `"step": 10`)

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatYAML).Print(data))
	assert.Contains(t, buf.String(), "- step: 10")
}

func TestPairs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, Pairs{{"atoms", "1234"}, {"precision", "single"}}))
	assert.Contains(t, buf.String(), "1234")
	assert.Contains(t, buf.String(), "single")
}

func TestPrintPairs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable).Print(summary{Atoms: 1234}))
	assert.Contains(t, buf.String(), "PROPERTY")
	assert.Contains(t, buf.String(), "1234")
	assert.NotContains(t, buf.String(), "{")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatJSON).Print(summary{Atoms: 1234}))
	assert.Contains(t, buf.String(), `"atoms": 1234`)

	//a pointer to a PairsRenderer is one too.
	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatTable).Print(&summary{Atoms: 1234}))
	assert.Contains(t, buf.String(), "PROPERTY")
}
