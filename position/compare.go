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

import "math"

type pairKey struct {
	contract    string
	productType string
}

// Compare joins the desk and clearing aggregates on contract and flags
// contracts whose net positions differ between the two sources. The row set
// is the union of distinct (contract, product type) pairs across both
// inputs; a side with no row for the contract contributes NaN numerics.
// Rows where either side's net position is zero or missing are dropped:
// those contracts are not considered open positions.
func Compare(desk []Aggregate, clearing []Aggregate) []ComparisonRow {
	order := make([]pairKey, 0, len(desk)+len(clearing))
	seen := make(map[pairKey]bool, len(desk)+len(clearing))
	for _, aggs := range [][]Aggregate{desk, clearing} {
		for i := range aggs {
			key := pairKey{aggs[i].Contract, aggs[i].ProductType}
			if !seen[key] {
				seen[key] = true
				order = append(order, key)
			}
		}
	}

	deskIdx := indexByContract(desk)
	clearingIdx := indexByContract(clearing)

	rows := make([]ComparisonRow, 0, len(order))
	for _, key := range order {
		row := ComparisonRow{
			Contract:            key.contract,
			ProductType:         key.productType,
			NetPositionTrading:  math.NaN(),
			PnLTrading:          math.NaN(),
			NetPositionClearing: math.NaN(),
			PnLClearing:         math.NaN(),
		}

		if agg, ok := deskIdx[key.contract]; ok {
			row.NetPositionTrading = agg.NetPosition
			row.PriceTrading = agg.Price
			row.PriceEURTrading = agg.PriceEUR
			row.PnLTrading = agg.PnL
		}
		if agg, ok := clearingIdx[key.contract]; ok {
			row.NetPositionClearing = agg.NetPosition
			row.PriceClearing = agg.Price
			row.PriceEURClearing = agg.PriceEUR
			row.PnLClearing = agg.PnL
		}

		// NaN never compares equal, so a missing side always counts as
		// a difference. The row is dropped below in that case anyway.
		row.IsNetPosDiff = row.NetPositionTrading != row.NetPositionClearing

		if flat(row.NetPositionTrading) || flat(row.NetPositionClearing) {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func indexByContract(aggs []Aggregate) map[string]*Aggregate {
	idx := make(map[string]*Aggregate, len(aggs))
	for i := range aggs {
		idx[aggs[i].Contract] = &aggs[i]
	}
	return idx
}

func flat(netPosition float64) bool {
	return netPosition == 0 || math.IsNaN(netPosition)
}
