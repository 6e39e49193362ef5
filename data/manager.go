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
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clearline/recon-api/common"
	"github.com/clearline/recon-api/position"
)

// Manager runs the reconciliation pipeline against one snapshot
// directory. The directory is re-read on every run so edits to the CSV
// files show up in the next report; runs share no mutable state.
type Manager struct {
	dir      string
	provider Provider
	tz       *time.Location
}

// NewManager validates that the snapshot directory loads and contains all
// required tables before any pipeline step can run.
func NewManager(ctx context.Context, dir string) (*Manager, error) {
	m := &Manager{
		dir:      dir,
		provider: NewStooq(),
		tz:       common.GetTimezone(),
	}
	if _, _, err := m.snapshot(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// RegisterProvider swaps the FX data provider.
func (m *Manager) RegisterProvider(p Provider) {
	m.provider = p
}

// snapshot loads a fresh copy of the raw tables and the symbol mapping.
func (m *Manager) snapshot(ctx context.Context) (Tables, map[string]string, error) {
	tables, err := LoadTables(ctx, m.dir)
	if err != nil {
		return nil, nil, err
	}
	if err := tables.Validate(TableDesk, TableClearing, TableSymbolMap); err != nil {
		return nil, nil, err
	}
	return tables, SymbolMap(tables[TableSymbolMap]), nil
}

// DeskPositions normalizes and aggregates the desk side only.
func (m *Manager) DeskPositions(ctx context.Context, targetDate time.Time) ([]position.Aggregate, error) {
	tables, _, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows := PositionRows(tables[TableDesk])
	rates := m.RateMap(ctx, targetDate, currenciesOf(rows))
	return position.Normalize(rows, rates, m.tz)
}

// ClearingPositions normalizes and aggregates the clearing side only. The
// underlying symbols are mapped to trading symbols before normalization.
func (m *Manager) ClearingPositions(ctx context.Context, targetDate time.Time) ([]position.Aggregate, error) {
	tables, symbolMap, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows := PositionRows(tables[TableClearing])
	position.MapSymbols(rows, symbolMap)
	rates := m.RateMap(ctx, targetDate, currenciesOf(rows))
	return position.Normalize(rows, rates, m.tz)
}

// Reconcile runs the full pipeline: normalize both sides against the same
// FX snapshot and compare them per contract.
func (m *Manager) Reconcile(ctx context.Context, targetDate time.Time) (*position.Report, error) {
	tables, symbolMap, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	deskRows := PositionRows(tables[TableDesk])
	clearingRows := PositionRows(tables[TableClearing])
	position.MapSymbols(clearingRows, symbolMap)

	rates := m.RateMap(ctx, targetDate, currenciesOf(deskRows, clearingRows))

	desk, err := position.Normalize(deskRows, rates, m.tz)
	if err != nil {
		return nil, err
	}
	clearing, err := position.Normalize(clearingRows, rates, m.tz)
	if err != nil {
		return nil, err
	}

	return &position.Report{
		TargetDate: targetDate,
		Desk:       desk,
		Clearing:   clearing,
		Compared:   position.Compare(desk, clearing),
	}, nil
}

type quoteResult struct {
	Pair string
	Rate float64
	Err  error
}

// RateMap resolves the EUR conversion rate for every distinct non-EUR
// currency in the input, as of targetDate. Quotes are fetched concurrently
// with one request per currency and cached per pair and date. A currency
// whose series is unavailable is left out of the map, which activates the
// default-to-1 policy downstream; it never fails the pipeline.
func (m *Manager) RateMap(ctx context.Context, targetDate time.Time, currencies []string) position.RateMap {
	rates := position.RateMap{}
	ch := make(chan quoteResult)

	pending := 0
	for _, currency := range distinctCurrencies(currencies) {
		pair := currency + "EUR"
		if rate, ok := cachedRate(pair, targetDate); ok {
			rates[pair] = rate
			continue
		}
		pending++
		go m.rateWorker(ctx, ch, pair, targetDate)
	}

	for ; pending > 0; pending-- {
		v := <-ch
		if v.Err != nil {
			log.Warn().Err(v.Err).Str("Pair", v.Pair).Msg("cannot resolve fx rate; defaulting to 1")
			continue
		}
		rates[v.Pair] = v.Rate
		storeRate(v.Pair, targetDate, v.Rate)
	}

	return rates
}

func (m *Manager) rateWorker(ctx context.Context, result chan<- quoteResult, pair string, targetDate time.Time) {
	rate, err := m.provider.CloseAsOf(ctx, pair, targetDate)
	result <- quoteResult{
		Pair: pair,
		Rate: rate,
		Err:  err,
	}
}

func distinctCurrencies(currencies []string) []string {
	seen := make(map[string]bool, len(currencies))
	distinct := make([]string, 0, len(currencies))
	for _, currency := range currencies {
		// EUR needs no conversion and empty codes are bad data
		if currency == "" || currency == "EUR" || seen[currency] {
			continue
		}
		seen[currency] = true
		distinct = append(distinct, currency)
	}
	return distinct
}

func currenciesOf(rowSets ...[]position.Row) []string {
	var currencies []string
	for _, rows := range rowSets {
		for i := range rows {
			currencies = append(currencies, rows[i].Currency)
		}
	}
	return currencies
}

func fxCacheKey(pair string, targetDate time.Time) string {
	return fmt.Sprintf("fx:%s:%s", pair, targetDate.Format("2006-01-02"))
}

func cachedRate(pair string, targetDate time.Time) (float64, bool) {
	raw, err := common.CacheGet(fxCacheKey(pair, targetDate))
	if err != nil || len(raw) == 0 {
		return 0, false
	}
	rate, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false
	}
	return rate, true
}

func storeRate(pair string, targetDate time.Time, rate float64) {
	raw := []byte(strconv.FormatFloat(rate, 'f', -1, 64))
	if err := common.CacheSet(fxCacheKey(pair, targetDate), raw); err != nil {
		log.Warn().Err(err).Str("Pair", pair).Msg("could not cache fx rate")
	}
}
