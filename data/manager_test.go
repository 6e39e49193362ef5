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
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clearline/recon-api/data"
	"github.com/clearline/recon-api/position"
)

// staticProvider serves fixed rates without any network round trip.
type staticProvider struct {
	rates map[string]float64
	calls int32
}

func (p *staticProvider) DataType() string {
	return "fx"
}

func (p *staticProvider) CloseAsOf(_ context.Context, symbol string, _ time.Time) (float64, error) {
	atomic.AddInt32(&p.calls, 1)
	rate, ok := p.rates[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %s", data.ErrRateUnavailable, symbol)
	}
	return rate, nil
}

var _ = Describe("Manager", func() {
	var (
		ctx        context.Context
		manager    *data.Manager
		provider   *staticProvider
		targetDate time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		targetDate = time.Date(2021, 12, 29, 0, 0, 0, 0, time.UTC)

		var err error
		manager, err = data.NewManager(ctx, "testdata/snapshots")
		Expect(err).To(BeNil())

		provider = &staticProvider{rates: map[string]float64{"USDEUR": 2}}
		manager.RegisterProvider(provider)
	})

	Describe("NewManager", func() {
		It("fails when a required table is missing", func() {
			_, err := data.NewManager(ctx, "testdata/missing")
			Expect(err).To(MatchError(data.ErrMissingTable))
		})
	})

	Describe("Reconcile", func() {
		It("builds the full report against one fx snapshot", func() {
			report, err := manager.Reconcile(ctx, targetDate)
			Expect(err).To(BeNil())
			Expect(report.TargetDate).To(Equal(targetDate))

			Expect(report.Desk).To(HaveLen(4))

			abc := report.Desk[0]
			Expect(abc.Contract).To(Equal("abc_usd"))
			Expect(abc.Symbol).To(Equal("ABC"))
			Expect(abc.ProductType).To(Equal(position.ProductTypeStock))
			Expect(abc.NetPosition).To(Equal(60.0))
			Expect(abc.PnL).To(BeNumerically("~", 260, 1e-9))
			Expect(abc.Price).To(Equal([]float64{10, 12}))
			Expect(abc.PriceEUR).To(Equal([]float64{5, 6}))

			def := report.Desk[1]
			Expect(def.Contract).To(Equal("def_eur"))
			Expect(def.NetPosition).To(Equal(50.0))
			Expect(def.PnL).To(BeNumerically("~", 1000, 1e-9))

			ghi := report.Desk[2]
			Expect(ghi.Contract).To(Equal("ghi_usd_2022-06-17_c_50"))
			Expect(ghi.ProductType).To(Equal(position.ProductTypeOption))
			Expect(ghi.NetPosition).To(Equal(10.0))
			Expect(ghi.PnL).To(BeNumerically("~", 12.5, 1e-9))

			// GBPEUR has no quote so the price passes through at rate 1
			xyz := report.Desk[3]
			Expect(xyz.Contract).To(Equal("xyz_gbp"))
			Expect(xyz.PriceEUR).To(Equal([]float64{8}))
			Expect(xyz.PnL).To(BeNumerically("~", 200, 1e-9))

			Expect(report.Clearing).To(HaveLen(4))
			Expect(report.Clearing[0].Contract).To(Equal("abc_usd"))
			Expect(report.Clearing[0].NetPosition).To(Equal(70.0))
			Expect(report.Clearing[0].PnL).To(BeNumerically("~", 350, 1e-9))
			Expect(report.Clearing[1].Contract).To(Equal("def_eur"))
			Expect(report.Clearing[2].Contract).To(Equal("ghi_usd_2022-06-17_c_50"))
			// the unmapped QQ row still aggregates, under an empty symbol
			Expect(report.Clearing[3].Contract).To(Equal("_eur"))
			Expect(report.Clearing[3].Symbol).To(Equal(""))
			Expect(report.Clearing[3].NetPosition).To(Equal(5.0))
		})

		It("drops single-sided contracts from the comparison", func() {
			report, err := manager.Reconcile(ctx, targetDate)
			Expect(err).To(BeNil())

			Expect(report.Compared).To(HaveLen(3))

			abc := report.Compared[0]
			Expect(abc.Contract).To(Equal("abc_usd"))
			Expect(abc.NetPositionTrading).To(Equal(60.0))
			Expect(abc.NetPositionClearing).To(Equal(70.0))
			Expect(abc.IsNetPosDiff).To(BeTrue())

			Expect(report.Compared[1].Contract).To(Equal("def_eur"))
			Expect(report.Compared[1].IsNetPosDiff).To(BeFalse())
			Expect(report.Compared[2].Contract).To(Equal("ghi_usd_2022-06-17_c_50"))
			Expect(report.Compared[2].IsNetPosDiff).To(BeFalse())
		})
	})

	Describe("snapshot reload", func() {
		It("re-reads the snapshot directory on every run", func() {
			dir, err := os.MkdirTemp("", "snapshots")
			Expect(err).To(BeNil())
			DeferCleanup(func() {
				os.RemoveAll(dir)
			})

			writeTable := func(name, content string) {
				Expect(os.WriteFile(filepath.Join(dir, name), []byte(content), 0600)).To(Succeed())
			}
			const positionHeader = "symbol,currency,product_type,maturity_date,put_call,strike,net_position,price,multiplier\n"
			writeTable("raw_trades_desk.csv", positionHeader+"ABC,EUR,ST,,,,100,10,1\n")
			writeTable("position_clearing_raw.csv",
				"symbol_underlying,currency,product_type,maturity_date,put_call,strike,net_position,price,multiplier\nAB,EUR,ST,,,,100,10,1\n")
			writeTable("mapping_symbol_raw.csv", "symbol_clearing,symbol_trading\nAB,ABC\n")

			mgr, err := data.NewManager(ctx, dir)
			Expect(err).To(BeNil())
			mgr.RegisterProvider(provider)

			report, err := mgr.Reconcile(ctx, targetDate)
			Expect(err).To(BeNil())
			Expect(report.Desk).To(HaveLen(1))
			Expect(report.Desk[0].NetPosition).To(Equal(100.0))

			// edit the desk snapshot between runs
			writeTable("raw_trades_desk.csv", positionHeader+"ABC,EUR,ST,,,,75,10,1\n")

			report, err = mgr.Reconcile(ctx, targetDate)
			Expect(err).To(BeNil())
			Expect(report.Desk).To(HaveLen(1))
			Expect(report.Desk[0].NetPosition).To(Equal(75.0))
		})
	})

	Describe("DeskPositions", func() {
		It("normalizes the desk side only", func() {
			aggregates, err := manager.DeskPositions(ctx, targetDate)
			Expect(err).To(BeNil())
			Expect(aggregates).To(HaveLen(4))
			Expect(aggregates[0].Contract).To(Equal("abc_usd"))
		})
	})

	Describe("ClearingPositions", func() {
		It("maps clearing symbols before normalizing", func() {
			aggregates, err := manager.ClearingPositions(ctx, targetDate)
			Expect(err).To(BeNil())
			Expect(aggregates).To(HaveLen(4))
			Expect(aggregates[0].Contract).To(Equal("abc_usd"))
			Expect(aggregates[0].Symbol).To(Equal("ABC"))
		})
	})

	Describe("RateMap", func() {
		It("caches quotes per pair and date", func() {
			// a date no other spec touches keeps the shared cache cold
			date := time.Date(2021, 11, 5, 0, 0, 0, 0, time.UTC)

			rates := manager.RateMap(ctx, date, []string{"USD", "USD", "EUR", ""})
			Expect(rates).To(Equal(position.RateMap{"USDEUR": 2.0}))
			Expect(atomic.LoadInt32(&provider.calls)).To(Equal(int32(1)))

			rates = manager.RateMap(ctx, date, []string{"USD"})
			Expect(rates).To(Equal(position.RateMap{"USDEUR": 2.0}))
			Expect(atomic.LoadInt32(&provider.calls)).To(Equal(int32(1)))
		})

		It("leaves unavailable pairs out of the map", func() {
			date := time.Date(2021, 11, 8, 0, 0, 0, 0, time.UTC)

			rates := manager.RateMap(ctx, date, []string{"USD", "GBP"})
			Expect(rates).To(Equal(position.RateMap{"USDEUR": 2.0}))
		})
	})
})
