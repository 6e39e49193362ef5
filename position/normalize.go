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

package position

import (
	"time"

	"github.com/rs/zerolog/log"
)

type groupKey struct {
	contract    string
	symbol      string
	productType string
}

// MapSymbols fills the trading symbol on clearing rows from the
// clearing-to-trading symbol mapping table. An underlying symbol with no
// mapping entry leaves the symbol empty; that is a data quality issue
// worth a warning, not an error.
func MapSymbols(rows []Row, mapping map[string]string) {
	for i := range rows {
		symbol, ok := mapping[rows[i].SymbolUnderlying]
		if !ok {
			log.Warn().
				Str("SymbolUnderlying", rows[i].SymbolUnderlying).
				Msg("no trading symbol mapping for clearing symbol")
			continue
		}
		rows[i].Symbol = symbol
	}
}

// Normalize enriches raw position rows and aggregates them to one row per
// contract. Maturity dates are normalized from UTC into the business
// timezone, the contract identifier is derived per row, prices are
// converted to EUR with the rate-or-default policy, and per-row P&L is
// price in EUR times net position. Rows are then grouped by
// (contract, symbol, product type): net position and P&L sum, prices
// collect into lists preserving input order.
func Normalize(rows []Row, rates RateMap, tz *time.Location) ([]Aggregate, error) {
	order := make([]groupKey, 0, len(rows))
	groups := make(map[groupKey]*Aggregate, len(rows))

	for i := range rows {
		row := &rows[i]

		if !row.MaturityDate.IsZero() {
			row.MaturityDate = row.MaturityDate.UTC().In(tz)
		}

		contract, err := Contract(row)
		if err != nil {
			return nil, err
		}

		priceEUR := row.Price
		if row.Currency != "EUR" {
			priceEUR = row.Price / rates.RateOrDefault(row.Currency)
		}
		pnl := priceEUR * row.NetPosition

		key := groupKey{contract, row.Symbol, row.ProductType}
		agg, ok := groups[key]
		if !ok {
			agg = &Aggregate{
				Contract:    contract,
				Symbol:      row.Symbol,
				ProductType: row.ProductType,
			}
			groups[key] = agg
			order = append(order, key)
		}

		agg.NetPosition += row.NetPosition
		agg.PnL += pnl
		agg.Price = append(agg.Price, row.Price)
		agg.PriceEUR = append(agg.PriceEUR, priceEUR)
	}

	out := make([]Aggregate, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out, nil
}
