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

package position_test

import (
	"math"

	json "github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clearline/recon-api/position"
)

var _ = Describe("JSON rendering", func() {
	It("marshals NaN aggregate numerics as null", func() {
		agg := position.Aggregate{
			Contract:    "abc_usd",
			Symbol:      "ABC",
			ProductType: position.ProductTypeStock,
			NetPosition: 100,
			PnL:         math.NaN(),
			Price:       []float64{math.NaN()},
			PriceEUR:    []float64{math.NaN()},
		}

		raw, err := json.Marshal([]position.Aggregate{agg})
		Expect(err).To(BeNil())
		Expect(string(raw)).To(ContainSubstring(`"net_position":100`))
		Expect(string(raw)).To(ContainSubstring(`"pnl":null`))
		Expect(string(raw)).To(ContainSubstring(`"price":[null]`))
		Expect(string(raw)).To(ContainSubstring(`"price_eur":[null]`))
	})

	It("marshals finite aggregate numerics as numbers", func() {
		agg := position.Aggregate{
			Contract:    "def_eur",
			Symbol:      "DEF",
			ProductType: position.ProductTypeStock,
			NetPosition: 50,
			PnL:         1000,
			Price:       []float64{20},
			PriceEUR:    []float64{20},
		}

		raw, err := json.Marshal(agg)
		Expect(err).To(BeNil())
		Expect(string(raw)).To(ContainSubstring(`"pnl":1000`))
		Expect(string(raw)).To(ContainSubstring(`"price":[20]`))
	})

	It("marshals NaN comparison numerics as null", func() {
		row := position.ComparisonRow{
			Contract:            "abc_usd",
			ProductType:         position.ProductTypeStock,
			NetPositionTrading:  100,
			PnLTrading:          math.NaN(),
			PriceTrading:        []float64{math.NaN()},
			PriceEURTrading:     []float64{math.NaN()},
			NetPositionClearing: 100,
			PnLClearing:         1000,
			PriceClearing:       []float64{10},
			PriceEURClearing:    []float64{10},
			IsNetPosDiff:        false,
		}

		raw, err := json.Marshal(row)
		Expect(err).To(BeNil())
		Expect(string(raw)).To(ContainSubstring(`"pnl_trading":null`))
		Expect(string(raw)).To(ContainSubstring(`"price_trading":[null]`))
		Expect(string(raw)).To(ContainSubstring(`"pnl_clearing":1000`))
		Expect(string(raw)).To(ContainSubstring(`"is_net_pos_diff":false`))
	})
})
