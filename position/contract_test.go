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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clearline/recon-api/position"
)

var _ = Describe("Contract", func() {
	DescribeTable("deriving stock identifiers",
		func(symbol, currency, expected string) {
			row := &position.Row{
				Symbol:      symbol,
				Currency:    currency,
				ProductType: position.ProductTypeStock,
			}
			contract, err := position.Contract(row)
			Expect(err).To(BeNil())
			Expect(contract).To(Equal(expected))
		},
		Entry("lowercase input", "abc", "usd", "abc_usd"),
		Entry("uppercase input", "ABC", "USD", "abc_usd"),
		Entry("mixed case input", "AbC", "uSd", "abc_usd"),
	)

	DescribeTable("deriving option identifiers",
		func(symbol, currency, putCall string, strike float64, expected string) {
			row := &position.Row{
				Symbol:       symbol,
				Currency:     currency,
				ProductType:  position.ProductTypeOption,
				MaturityDate: time.Date(2022, 6, 17, 0, 0, 0, 0, time.UTC),
				PutCall:      putCall,
				Strike:       strike,
			}
			contract, err := position.Contract(row)
			Expect(err).To(BeNil())
			Expect(contract).To(Equal(expected))
		},
		Entry("lowercase input", "abc", "usd", "c", 50.0, "abc_usd_2022-06-17_c_50"),
		Entry("uppercase input", "ABC", "USD", "C", 50.0, "abc_usd_2022-06-17_c_50"),
		Entry("put option", "ABC", "EUR", "P", 50.0, "abc_eur_2022-06-17_p_50"),
		Entry("fractional strike", "ABC", "USD", "C", 12.5, "abc_usd_2022-06-17_c_12.5"),
	)

	Describe("when two sources report the same economic instrument", func() {
		It("derives identical identifiers regardless of case", func() {
			maturity := time.Date(2023, 3, 17, 0, 0, 0, 0, time.UTC)
			desk := &position.Row{
				Symbol:       "ROY",
				Currency:     "GBP",
				ProductType:  position.ProductTypeOption,
				MaturityDate: maturity,
				PutCall:      "P",
				Strike:       120,
			}
			clearing := &position.Row{
				Symbol:       "roy",
				Currency:     "gbp",
				ProductType:  position.ProductTypeOption,
				MaturityDate: maturity,
				PutCall:      "p",
				Strike:       120,
			}

			a, err := position.Contract(desk)
			Expect(err).To(BeNil())
			b, err := position.Contract(clearing)
			Expect(err).To(BeNil())
			Expect(a).To(Equal(b))
		})
	})

	Describe("when the product type is not recognized", func() {
		It("returns ErrUnsupportedProductType", func() {
			row := &position.Row{
				Symbol:      "ABC",
				Currency:    "USD",
				ProductType: "FU",
			}
			_, err := position.Contract(row)
			Expect(err).To(MatchError(position.ErrUnsupportedProductType))
		})
	})
})
