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

package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clearline/recon-api/common"
	"github.com/clearline/recon-api/data"
	"github.com/clearline/recon-api/position"
)

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run the reconciliation pipeline once and print the report",
	Long: `Load the position snapshots, normalize both sources to EUR and print
the aggregated positions and the per-contract comparison.`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()

		ctx := context.Background()
		manager, err := data.NewManager(ctx, viper.GetString("data.dir"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize data manager")
		}

		targetDate := time.Now().UTC()
		if dateStr := viper.GetString("recon.target_date"); dateStr != "" {
			targetDate, err = time.Parse("2006-01-02", dateStr)
			if err != nil {
				log.Fatal().Err(err).Str("TargetDate", dateStr).Msg("invalid target date")
			}
		}

		report, err := manager.Reconcile(ctx, targetDate)
		if err != nil {
			log.Fatal().Err(err).Msg("reconciliation failed")
		}

		fmt.Printf("Position reconciliation for %s\n\n", report.TargetDate.Format("2006-01-02"))

		fmt.Println("Desk positions:")
		printAggregates(report.Desk)

		fmt.Println("Clearing positions:")
		printAggregates(report.Clearing)

		fmt.Println("Comparison:")
		printComparison(report.Compared)
	},
}

func printAggregates(aggs []position.Aggregate) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Contract", "Symbol", "Type", "Net Position", "PnL (EUR)", "Prices", "Prices (EUR)"})
	for i := range aggs {
		table.Append([]string{
			aggs[i].Contract,
			aggs[i].Symbol,
			aggs[i].ProductType,
			formatNum(aggs[i].NetPosition),
			formatNum(aggs[i].PnL),
			formatList(aggs[i].Price),
			formatList(aggs[i].PriceEUR),
		})
	}
	table.Render()
	fmt.Println()
}

func printComparison(rows []position.ComparisonRow) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Contract", "Type", "Net (Desk)", "Net (Clearing)", "PnL (Desk)", "PnL (Clearing)", "Diff?"})
	for i := range rows {
		table.Append([]string{
			rows[i].Contract,
			rows[i].ProductType,
			formatNum(rows[i].NetPositionTrading),
			formatNum(rows[i].NetPositionClearing),
			formatNum(rows[i].PnLTrading),
			formatNum(rows[i].PnLClearing),
			strconv.FormatBool(rows[i].IsNetPosDiff),
		})
	}
	table.Render()
	fmt.Println()
}

func formatNum(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatList(vals []float64) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		parts = append(parts, formatNum(v))
	}
	return strings.Join(parts, ", ")
}
