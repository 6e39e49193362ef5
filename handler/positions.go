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

package handler

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/clearline/recon-api/common"
)

// DeskPositions returns the normalized, per-contract desk positions.
func DeskPositions(c *fiber.Ctx) error {
	date, err := targetDate(c)
	if err != nil {
		log.Warn().Err(err).Str("Date", c.Query("date")).Msg("cannot parse date query parameter")
		return fiber.ErrNotAcceptable
	}

	aggs, err := manager.DeskPositions(c.Context(), date)
	if err != nil {
		log.Error().Err(err).Msg("desk normalization failed")
		return fiber.ErrUnprocessableEntity
	}
	return c.JSON(aggs)
}

// ClearingPositions returns the normalized, per-contract clearing
// positions with underlying symbols mapped to trading symbols.
func ClearingPositions(c *fiber.Ctx) error {
	date, err := targetDate(c)
	if err != nil {
		log.Warn().Err(err).Str("Date", c.Query("date")).Msg("cannot parse date query parameter")
		return fiber.ErrNotAcceptable
	}

	aggs, err := manager.ClearingPositions(c.Context(), date)
	if err != nil {
		log.Error().Err(err).Msg("clearing normalization failed")
		return fiber.ErrUnprocessableEntity
	}
	return c.JSON(aggs)
}

// Reconciliation returns the full comparison report. Reports are cached
// per target date; the scheduler refreshes the default date's report in
// the background.
func Reconciliation(c *fiber.Ctx) error {
	date, err := targetDate(c)
	if err != nil {
		log.Warn().Err(err).Str("Date", c.Query("date")).Msg("cannot parse date query parameter")
		return fiber.ErrNotAcceptable
	}

	if raw, err := common.CacheGet(reportCacheKey(date)); err == nil && len(raw) > 0 {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(raw)
	}

	report, err := manager.Reconcile(c.Context(), date)
	if err != nil {
		log.Error().Err(err).Msg("reconciliation failed")
		return fiber.ErrUnprocessableEntity
	}

	if raw, err := json.Marshal(report); err == nil {
		if err := common.CacheSet(reportCacheKey(date), raw); err != nil {
			log.Warn().Err(err).Msg("could not cache reconciliation report")
		}
	}

	return c.JSON(report)
}

// RefreshReport recomputes and caches the report for the configured target
// date. Run periodically by the scheduler so the dashboard stays warm.
func RefreshReport() {
	date, err := defaultTargetDate()
	if err != nil {
		log.Error().Err(err).Msg("invalid configured target date")
		return
	}

	report, err := manager.Reconcile(context.Background(), date)
	if err != nil {
		log.Error().Err(err).Msg("scheduled reconciliation failed")
		return
	}

	raw, err := json.Marshal(report)
	if err != nil {
		log.Error().Err(err).Msg("could not marshal reconciliation report")
		return
	}
	if err := common.CacheSet(reportCacheKey(date), raw); err != nil {
		log.Warn().Err(err).Msg("could not cache reconciliation report")
	}

	log.Info().Time("TargetDate", date).Int("NumRows", len(report.Compared)).Msg("refreshed reconciliation report")
}

func targetDate(c *fiber.Ctx) (time.Time, error) {
	dateStr := c.Query("date")
	if dateStr == "" {
		return defaultTargetDate()
	}
	return time.Parse("2006-01-02", dateStr)
}

func defaultTargetDate() (time.Time, error) {
	dateStr := viper.GetString("recon.target_date")
	if dateStr == "" {
		year, month, day := time.Now().UTC().Date()
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", dateStr)
}

func reportCacheKey(date time.Time) string {
	return fmt.Sprintf("recon:%s", date.Format("2006-01-02"))
}
