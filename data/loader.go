// Copyright 2024-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	imports "github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/rs/zerolog/log"

	"github.com/clearline/recon-api/position"
)

// Logical table names the reconciliation pipeline depends on. A table's
// name is the stem of the CSV file it was loaded from.
const (
	TableDesk      = "raw_trades_desk"
	TableClearing  = "position_clearing_raw"
	TableSymbolMap = "mapping_symbol_raw"
)

// Tables maps a logical table name to its tabular data.
type Tables map[string]*dataframe.DataFrame

// LoadTables reads every CSV file in dir into a named table. All columns
// are kept as strings; typed conversion happens when a table is turned
// into position rows.
func LoadTables(ctx context.Context, dir string) (Tables, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read snapshot directory %s: %w", dir, err)
	}

	tables := Tables{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".csv")

		fh, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		df, err := imports.LoadFromCSV(ctx, fh, imports.CSVLoadOptions{})
		fh.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot load table %s: %w", name, err)
		}

		tables[name] = df
		log.Info().Str("Table", name).Int("NumRows", df.NRows()).Msg("loaded table")
	}

	if len(tables) == 0 {
		log.Warn().Str("Dir", dir).Msg("no csv files found in snapshot directory")
	}

	return tables, nil
}

// Validate checks that every required table is present. Missing tables are
// a structural precondition failure; the pipeline never starts without
// them.
func (t Tables) Validate(required ...string) error {
	for _, name := range required {
		if _, ok := t[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingTable, name)
		}
	}
	return nil
}

// PositionRows converts a raw table into typed position rows. Numeric
// fields that fail to parse become NaN and dates that fail to parse stay
// zero; a malformed value never drops the row.
func PositionRows(df *dataframe.DataFrame) []position.Row {
	rows := make([]position.Row, 0, df.NRows())

	iterator := df.ValuesIterator(dataframe.ValuesOptions{InitialRow: 0, Step: 1, DontReadLock: true})
	for {
		rowIdx, vals, _ := iterator()
		if rowIdx == nil {
			break
		}

		rows = append(rows, position.Row{
			Symbol:           stringVal(vals, "symbol"),
			SymbolUnderlying: stringVal(vals, "symbol_underlying"),
			Currency:         stringVal(vals, "currency"),
			ProductType:      stringVal(vals, "product_type"),
			PutCall:          stringVal(vals, "put_call"),
			MaturityDate:     dateVal(vals, "maturity_date"),
			Strike:           numericVal(vals, "strike"),
			NetPosition:      numericVal(vals, "net_position"),
			Price:            numericVal(vals, "price"),
			Multiplier:       numericVal(vals, "multiplier"),
		})
	}

	return rows
}

// SymbolMap converts the clearing-to-trading symbol mapping table into a
// lookup from clearing symbol to trading symbol.
func SymbolMap(df *dataframe.DataFrame) map[string]string {
	mapping := make(map[string]string, df.NRows())

	iterator := df.ValuesIterator(dataframe.ValuesOptions{InitialRow: 0, Step: 1, DontReadLock: true})
	for {
		rowIdx, vals, _ := iterator()
		if rowIdx == nil {
			break
		}
		mapping[stringVal(vals, "symbol_clearing")] = stringVal(vals, "symbol_trading")
	}

	return mapping
}

func stringVal(vals map[interface{}]interface{}, name string) string {
	v, ok := vals[name]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func numericVal(vals map[interface{}]interface{}, name string) float64 {
	s := stringVal(vals, name)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func dateVal(vals map[interface{}]interface{}, name string) time.Time {
	s := stringVal(vals, name)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
