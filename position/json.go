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
	"math"

	json "github.com/goccy/go-json"
)

// NaN marks missing numerics inside the pipeline but has no JSON
// representation, so the report types marshal it as null. A snapshot row
// with an unparsable cell must still render, not fail the endpoint.

func (a Aggregate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Contract    string     `json:"contract"`
		Symbol      string     `json:"symbol"`
		ProductType string     `json:"product_type"`
		NetPosition *float64   `json:"net_position"`
		PnL         *float64   `json:"pnl"`
		Price       []*float64 `json:"price"`
		PriceEUR    []*float64 `json:"price_eur"`
	}{
		Contract:    a.Contract,
		Symbol:      a.Symbol,
		ProductType: a.ProductType,
		NetPosition: nullableNum(a.NetPosition),
		PnL:         nullableNum(a.PnL),
		Price:       nullableNums(a.Price),
		PriceEUR:    nullableNums(a.PriceEUR),
	})
}

func (r ComparisonRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Contract            string     `json:"contract"`
		ProductType         string     `json:"product_type"`
		NetPositionTrading  *float64   `json:"net_position_trading"`
		PriceTrading        []*float64 `json:"price_trading"`
		PriceEURTrading     []*float64 `json:"price_eur_trading"`
		PnLTrading          *float64   `json:"pnl_trading"`
		NetPositionClearing *float64   `json:"net_position_clearing"`
		PriceClearing       []*float64 `json:"price_clearing"`
		PriceEURClearing    []*float64 `json:"price_eur_clearing"`
		PnLClearing         *float64   `json:"pnl_clearing"`
		IsNetPosDiff        bool       `json:"is_net_pos_diff"`
	}{
		Contract:            r.Contract,
		ProductType:         r.ProductType,
		NetPositionTrading:  nullableNum(r.NetPositionTrading),
		PriceTrading:        nullableNums(r.PriceTrading),
		PriceEURTrading:     nullableNums(r.PriceEURTrading),
		PnLTrading:          nullableNum(r.PnLTrading),
		NetPositionClearing: nullableNum(r.NetPositionClearing),
		PriceClearing:       nullableNums(r.PriceClearing),
		PriceEURClearing:    nullableNums(r.PriceEURClearing),
		PnLClearing:         nullableNum(r.PnLClearing),
		IsNetPosDiff:        r.IsNetPosDiff,
	})
}

func nullableNum(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func nullableNums(vals []float64) []*float64 {
	if vals == nil {
		return nil
	}
	out := make([]*float64, len(vals))
	for i := range vals {
		out[i] = nullableNum(vals[i])
	}
	return out
}
