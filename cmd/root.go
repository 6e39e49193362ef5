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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clearline/recon-api/pkginfo"
)

var Profile bool
var Trace bool

func init() {
	// Snapshot directory
	viper.BindEnv("data.dir", "RECON_DATA_DIR")
	rootCmd.PersistentFlags().String("data-dir", "data", "Directory containing the CSV position snapshots")
	viper.BindPFlag("data.dir", rootCmd.PersistentFlags().Lookup("data-dir"))

	// Reconciliation target date
	viper.BindEnv("recon.target_date", "RECON_TARGET_DATE")
	rootCmd.PersistentFlags().String("target-date", "", "Target date (YYYY-MM-DD) for FX rates; defaults to today")
	viper.BindPFlag("recon.target_date", rootCmd.PersistentFlags().Lookup("target-date"))

	// FX provider
	viper.BindEnv("fx.timeout", "RECON_FX_TIMEOUT")
	rootCmd.PersistentFlags().Duration("fx-timeout", 0, "Timeout for FX market data requests")
	viper.BindPFlag("fx.timeout", rootCmd.PersistentFlags().Lookup("fx-timeout"))

	// Logging configuration
	viper.BindEnv("log.level", "RECON_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "RECON_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "RECON_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	viper.BindEnv("log.pretty", "RECON_LOG_PRETTY")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print logs in a human readable console format")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	rootCmd.PersistentFlags().BoolVar(&Profile, "cpu-profile", false, "Run pprof and save in profile.out")
	rootCmd.PersistentFlags().BoolVar(&Trace, "trace", false, "Trace program execution and save in trace.out")
}

var rootCmd = &cobra.Command{
	Use:     pkginfo.ProgramName,
	Version: pkginfo.Version,
	Short:   "Reconcile trading positions against clearing positions",
	Long: `A demonstration back-office dashboard that loads desk and clearing
position snapshots, normalizes them to EUR and compares them per contract
to flag discrepancies.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
