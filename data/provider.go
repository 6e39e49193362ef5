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
	"time"
)

// Provider retrieves quotes from an external time-series market data
// source.
type Provider interface {
	DataType() string

	// CloseAsOf returns the closing quote for symbol nearest at or before
	// date (a backward as-of lookup). An empty series yields an error, not
	// a zero quote.
	CloseAsOf(ctx context.Context, symbol string, date time.Time) (float64, error)
}
