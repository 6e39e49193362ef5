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

package data_test

import (
	"context"
	"os"
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clearline/recon-api/data"
)

var _ = Describe("Stooq", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		httpmock.Reset()

		content, err := os.ReadFile("testdata/usdeur.csv")
		Expect(err).To(BeNil())

		httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=usdeur&d1=20211215&d2=20211229&i=d",
			httpmock.NewBytesResponder(200, content))
		httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=usdeur&d1=20211213&d2=20211227&i=d",
			httpmock.NewBytesResponder(200, content))
		httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=gbpeur&d1=20211215&d2=20211229&i=d",
			httpmock.NewStringResponder(200, "Date,Open,High,Low,Close,Volume\n2021-12-23,1,1,1,n/a,0\n2021-12-24,1,1,1,n/a,0\n"))
		httpmock.RegisterResponder("GET", "https://stooq.com/q/d/l/?s=jpyeur&d1=20211215&d2=20211229&i=d",
			httpmock.NewStringResponder(404, "not found"))
	})

	It("returns the latest close before the target date when the date itself has no quote", func() {
		// 2021-12-29 is not in the series; the 2021-12-28 close applies
		provider := data.NewStooq()
		rate, err := provider.CloseAsOf(ctx, "USDEUR", time.Date(2021, 12, 29, 0, 0, 0, 0, time.UTC))
		Expect(err).To(BeNil())
		Expect(rate).To(BeNumerically("~", 0.889, 1e-6))
	})

	It("returns the close for the target date when quoted", func() {
		provider := data.NewStooq()
		rate, err := provider.CloseAsOf(ctx, "USDEUR", time.Date(2021, 12, 27, 0, 0, 0, 0, time.UTC))
		Expect(err).To(BeNil())
		Expect(rate).To(BeNumerically("~", 0.887, 1e-6))
	})

	It("skips unparsable closes and reports rate unavailable when none remain", func() {
		provider := data.NewStooq()
		_, err := provider.CloseAsOf(ctx, "GBPEUR", time.Date(2021, 12, 29, 0, 0, 0, 0, time.UTC))
		Expect(err).To(MatchError(data.ErrRateUnavailable))
	})

	It("reports HTTP errors", func() {
		provider := data.NewStooq()
		_, err := provider.CloseAsOf(ctx, "JPYEUR", time.Date(2021, 12, 29, 0, 0, 0, 0, time.UTC))
		Expect(err).NotTo(BeNil())
	})
})
