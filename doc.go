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

// Package ccsds writes self-describing telemetry as CCSDS space packets.
//
// An Encoder frames each packet between Start and Finish and writes it into
// a circular buffer. The first time an APID is seen the encoder emits doc
// packets (APID 1) describing the packet name and every named field, so a
// reader that only knows the doc packet layout can parse the rest of the
// stream. Metadoc packets (APID 2) carry plain English text describing the
// format for a reader that knows nothing at all.
//
// Basic usage:
//
//	storage := make([]byte, 4096)
//	ring, drainer, _ := dump.NewBuffer(dump.NewHd(os.Stdout), storage)
//	enc, _ := ccsds.NewEncoder(ring)
//	_ = enc.DefaultMetaDoc()
//	_ = enc.Start(3, "Barometer", ccsds.NoTimeCode)
//	_ = enc.FillI32(pressure, "pressure")
//	_ = enc.Finish(3)
//	_ = ring.Drain()
//	_ = drainer.Close()
package ccsds
