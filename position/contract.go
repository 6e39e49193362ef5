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
	"fmt"
	"strconv"
	"strings"
)

// Contract derives the canonical identifier for a tradable instrument.
// Stocks use symbol and currency; options additionally carry maturity,
// put/call and strike so the identifier is unique per contract. The same
// economic instrument must yield the same identifier regardless of which
// source system reported it, so all string parts are lowercased and the
// maturity is formatted as an ISO date.
func Contract(row *Row) (string, error) {
	switch row.ProductType {
	case ProductTypeStock:
		return strings.Join([]string{
			strings.ToLower(row.Symbol),
			strings.ToLower(row.Currency),
		}, "_"), nil
	case ProductTypeOption:
		return strings.Join([]string{
			strings.ToLower(row.Symbol),
			strings.ToLower(row.Currency),
			row.MaturityDate.Format("2006-01-02"),
			strings.ToLower(row.PutCall),
			strconv.FormatFloat(row.Strike, 'f', -1, 64),
		}, "_"), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProductType, row.ProductType)
	}
}
