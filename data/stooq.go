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
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	imports "github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/spf13/viper"
)

var stooqURL = "https://stooq.com"

// asOfWindowDays is how far back the daily series request reaches so that
// weekends and market holidays still resolve to an earlier close.
const asOfWindowDays = 14

type stooq struct {
	client *http.Client
}

// NewStooq creates a new stooq FX data provider. Requests carry the
// configured timeout so a stalled market data call cannot block a
// reconciliation run indefinitely.
func NewStooq() *stooq {
	timeout := viper.GetDuration("fx.timeout")
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &stooq{
		client: &http.Client{Timeout: timeout},
	}
}

func (s *stooq) DataType() string {
	return "fx"
}

func (s *stooq) CloseAsOf(ctx context.Context, symbol string, date time.Time) (float64, error) {
	begin := date.AddDate(0, 0, -asOfWindowDays)
	url := fmt.Sprintf("%s/q/d/l/?s=%s&d1=%s&d2=%s&i=d", stooqURL,
		strings.ToLower(symbol), begin.Format("20060102"), date.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("HTTP request returned invalid status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	df, err := imports.LoadFromCSV(ctx, bytes.NewReader(body), imports.CSVLoadOptions{
		DictateDataType: map[string]interface{}{
			"Date": imports.Converter{
				ConcreteType: time.Time{},
				ConverterFunc: func(in interface{}) (interface{}, error) {
					return time.ParseInLocation("2006-01-02", in.(string), time.UTC)
				},
			},
			"Close": imports.Converter{
				ConcreteType: float64(0),
				ConverterFunc: func(in interface{}) (interface{}, error) {
					v, err := strconv.ParseFloat(in.(string), 64)
					if err != nil {
						return math.NaN(), nil
					}
					return v, nil
				},
			},
		},
	})
	if err != nil {
		return 0, err
	}

	// walk forward keeping the latest close at or before the target date
	rate := math.NaN()
	iterator := df.ValuesIterator(dataframe.ValuesOptions{InitialRow: 0, Step: 1, DontReadLock: true})
	for {
		rowIdx, vals, _ := iterator()
		if rowIdx == nil {
			break
		}
		d, ok := vals["Date"].(time.Time)
		if !ok || d.After(date) {
			continue
		}
		if c, ok := vals["Close"].(float64); ok && !math.IsNaN(c) {
			rate = c
		}
	}

	if math.IsNaN(rate) {
		return 0, fmt.Errorf("%w: %s", ErrRateUnavailable, symbol)
	}
	return rate, nil
}
