// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// fileConfig is the optional configuration file. Keys are the flag names;
// flags given on the command line win over the file.
type fileConfig struct {
	Device   string `mapstructure:"device"`
	Format   string `mapstructure:"format"`
	Compress string `mapstructure:"compress"`
	Blob     string `mapstructure:"blob"`
	Log      string `mapstructure:"log"`
	Interval string `mapstructure:"interval"`
	Ring     int    `mapstructure:"ring"`
	Stash    int    `mapstructure:"stash"`
	RecLen   int    `mapstructure:"reclen"`
	Count    int    `mapstructure:"count"`
	Baud     int    `mapstructure:"baud"`
	Seed     uint64 `mapstructure:"seed"`
	CRLF     bool   `mapstructure:"crlf"`
	Debug    bool   `mapstructure:"debug"`
}

// applyConfigFile reads path and fills every setting the file names and
// the command line left alone. set holds the flags given explicitly.
func applyConfigFile(cfg *config, path string, set map[string]bool) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	use := func(key string) bool {
		return v.IsSet(key) && !set[key]
	}
	if use("device") {
		cfg.devicePath = fc.Device
	}
	if use("format") {
		cfg.format = fc.Format
	}
	if use("compress") {
		cfg.codec = fc.Compress
	}
	if use("blob") {
		cfg.blobFile = fc.Blob
	}
	if use("log") {
		cfg.logDir = fc.Log
	}
	if use("interval") {
		d, err := time.ParseDuration(fc.Interval)
		if err != nil {
			return fmt.Errorf("config file %s: interval: %w", path, err)
		}
		cfg.interval = d
	}
	if use("ring") {
		cfg.ringSize = fc.Ring
	}
	if use("stash") {
		cfg.stashSize = fc.Stash
	}
	if use("reclen") {
		cfg.recLen = fc.RecLen
	}
	if use("count") {
		cfg.count = fc.Count
	}
	if use("baud") {
		cfg.baud = fc.Baud
	}
	if use("seed") {
		cfg.seed = fc.Seed
	}
	if use("crlf") {
		cfg.crlf = fc.CRLF
	}
	if use("debug") {
		cfg.debug = fc.Debug
	}
	return nil
}
