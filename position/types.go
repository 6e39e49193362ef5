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
	"time"
)

const (
	ProductTypeStock  = "ST"
	ProductTypeOption = "OP"
)

// Row is one instrument holding reported by a single source system. Numeric
// fields that could not be parsed from the source data are NaN; rows are
// never rejected for bad numerics.
type Row struct {
	Symbol           string
	SymbolUnderlying string
	Currency         string
	ProductType      string
	MaturityDate     time.Time
	PutCall          string
	Strike           float64
	NetPosition      float64
	Price            float64
	Multiplier       float64
}

// Aggregate is one row per contract after normalization: net position and
// P&L summed over the raw rows sharing the contract, with the contributing
// prices collected in input order.
type Aggregate struct {
	Contract    string    `json:"contract"`
	Symbol      string    `json:"symbol"`
	ProductType string    `json:"product_type"`
	NetPosition float64   `json:"net_position"`
	PnL         float64   `json:"pnl"`
	Price       []float64 `json:"price"`
	PriceEUR    []float64 `json:"price_eur"`
}

// ComparisonRow joins the desk and clearing aggregates for one contract.
// Rows that survive the comparison always carry both sides; a side missing
// or flat is dropped before the report is returned.
type ComparisonRow struct {
	Contract            string    `json:"contract"`
	ProductType         string    `json:"product_type"`
	NetPositionTrading  float64   `json:"net_position_trading"`
	PriceTrading        []float64 `json:"price_trading"`
	PriceEURTrading     []float64 `json:"price_eur_trading"`
	PnLTrading          float64   `json:"pnl_trading"`
	NetPositionClearing float64   `json:"net_position_clearing"`
	PriceClearing       []float64 `json:"price_clearing"`
	PriceEURClearing    []float64 `json:"price_eur_clearing"`
	PnLClearing         float64   `json:"pnl_clearing"`
	IsNetPosDiff        bool      `json:"is_net_pos_diff"`
}

// Report is the result of one reconciliation run. All tables are rebuilt
// from the raw snapshots on every run; nothing is persisted.
type Report struct {
	TargetDate time.Time       `json:"target_date"`
	Desk       []Aggregate     `json:"position_desk"`
	Clearing   []Aggregate     `json:"position_clearing"`
	Compared   []ComparisonRow `json:"position_compared"`
}

// RateMap maps "{CUR}EUR" pair codes to the EUR conversion rate for a
// single target date.
type RateMap map[string]float64

// RateOrDefault returns the EUR conversion rate for currency, defaulting to
// 1 when no quote is available. The default treats the currency as already
// EUR denominated; it is a documented fallback policy, not an error.
func (m RateMap) RateOrDefault(currency string) float64 {
	rate, ok := m[currency+"EUR"]
	if !ok || math.IsNaN(rate) {
		return 1
	}
	return rate
}
