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
	"math/rand/v2"

	ccsds "github.com/ZaparooProject/go-ccsds"
)

// APIDs used by the sensor logger.
const (
	apidSource        ccsds.APID = 0x04
	apidBMP180Cal     ccsds.APID = 0x05
	apidBMP180Meas    ccsds.APID = 0x06
	apidMPU6050Config ccsds.APID = 0x07
	apidMPU6050Meas   ccsds.APID = 0x08
	apidHMC5883Config ccsds.APID = 0x09
	apidHMC5883Meas   ccsds.APID = 0x0A
	apidSourceSummary ccsds.APID = 0x0B
	apidHostStatus    ccsds.APID = 0x0C
)

const (
	bmp180WhoAmI       uint8 = 0x55
	mpu6050Address     uint8 = 0x68
	mpu6050WhoAmI      uint8 = 0x68
	hmc5883Status      uint8 = 0x01
	bmp180Oversampling       = 0
)

// fieldWriter keeps the first fill error so a packet body reads as a flat
// list of fields.
type fieldWriter struct {
	enc *ccsds.Encoder
	err error
}

func (f *fieldWriter) u8(v uint8, name string) {
	if f.err == nil {
		f.err = f.enc.FillU8(v, name)
	}
}

func (f *fieldWriter) i16(v int16, name string) {
	if f.err == nil {
		f.err = f.enc.FillI16(v, name)
	}
}

func (f *fieldWriter) u16(v uint16, name string) {
	if f.err == nil {
		f.err = f.enc.FillU16(v, name)
	}
}

func (f *fieldWriter) u64(v uint64, name string) {
	if f.err == nil {
		f.err = f.enc.FillU64(v, name)
	}
}

func (f *fieldWriter) u32(v uint32, name string) {
	if f.err == nil {
		f.err = f.enc.FillU32(v, name)
	}
}

// bmp180 holds the factory calibration of a BMP180 barometer. The values
// are the worked example from the Bosch datasheet.
type bmp180 struct {
	ac1, ac2, ac3 int16
	ac4, ac5, ac6 uint16
	b1, b2        int16
	mb, mc, md    int16
}

func newBMP180() *bmp180 {
	return &bmp180{
		ac1: 408, ac2: -72, ac3: -14383,
		ac4: 32741, ac5: 32757, ac6: 23153,
		b1: 6190, b2: 4,
		mb: -32768, mc: -8711, md: 2868,
	}
}

func (b *bmp180) fillCalibration(f *fieldWriter) {
	f.i16(b.ac1, "AC1")
	f.i16(b.ac2, "AC2")
	f.i16(b.ac3, "AC3")
	f.u16(b.ac4, "AC4")
	f.u16(b.ac5, "AC5")
	f.u16(b.ac6, "AC6")
	f.i16(b.b1, "B1")
	f.i16(b.b2, "B2")
	f.i16(b.mb, "MB")
	f.i16(b.mc, "MC")
	f.i16(b.md, "MD")
}

// compensate converts raw temperature and pressure readings to 0.1 degC
// and Pa using the datasheet integer algorithm.
func (b *bmp180) compensate(ut, up int64) (temp int16, pressure uint32) {
	x1 := ((ut - int64(b.ac6)) * int64(b.ac5)) >> 15
	x2 := (int64(b.mc) << 11) / (x1 + int64(b.md))
	b5 := x1 + x2
	temp = int16((b5 + 8) >> 4) //nolint:gosec // sensor range fits

	b6 := b5 - 4000
	x1 = (int64(b.b2) * ((b6 * b6) >> 12)) >> 11
	x2 = (int64(b.ac2) * b6) >> 11
	x3 := x1 + x2
	b3 := (((int64(b.ac1)*4 + x3) << bmp180Oversampling) + 2) / 4
	x1 = (int64(b.ac3) * b6) >> 13
	x2 = (int64(b.b1) * ((b6 * b6) >> 12)) >> 16
	x3 = ((x1 + x2) + 2) >> 2
	b4 := (uint64(b.ac4) * uint64(uint32(x3+32768))) >> 15 //nolint:gosec // datasheet unsigned arithmetic
	b7 := uint64(uint32(up-b3)) * (50000 >> bmp180Oversampling) //nolint:gosec // datasheet unsigned arithmetic
	b7 &= 0xFFFFFFFF

	var p int64
	if b7 < 0x80000000 {
		p = int64((b7 * 2) / b4) //nolint:gosec // bounded by sensor range
	} else {
		p = int64((b7 / b4) * 2) //nolint:gosec // bounded by sensor range
	}
	x1 = (p >> 8) * (p >> 8)
	x1 = (x1 * 3038) >> 16
	x2 = (-7357 * p) >> 16
	p += (x1 + x2 + 3791) >> 4
	return temp, uint32(p) //nolint:gosec // pressure is positive
}

// station simulates the sensor board: a BMP180 barometer, an MPU6050
// accelerometer and gyro, and an HMC5883L magnetometer on one bus.
type station struct {
	enc   *ccsds.Encoder
	clock ccsds.Clock
	rng   *rand.Rand
	bmp   *bmp180
}

func newStation(enc *ccsds.Encoder, clock ccsds.Clock, seed uint64) *station {
	return &station{
		enc:   enc,
		clock: clock,
		rng:   rand.New(rand.NewPCG(seed, seed^0x5EED)), //nolint:gosec // simulated readings
		bmp:   newBMP180(),
	}
}

func (s *station) packet(apid ccsds.APID, name string, tc ccsds.TimeCode, body func(f *fieldWriter)) error {
	if err := s.enc.Start(apid, name, tc); err != nil {
		return err //nolint:wrapcheck // encoder errors carry the APID
	}
	f := &fieldWriter{enc: s.enc}
	body(f)
	if f.err != nil {
		return f.err
	}
	return s.enc.Finish(apid) //nolint:wrapcheck // encoder errors carry the APID
}

// writeConfig emits one calibration or configuration packet per sensor.
func (s *station) writeConfig() error {
	if err := s.packet(apidBMP180Cal, "BMP180calibration", ccsds.NoTimeCode, func(f *fieldWriter) {
		f.u8(bmp180WhoAmI, "whoami_should_be_0x55")
		s.bmp.fillCalibration(f)
	}); err != nil {
		return err
	}

	if err := s.packet(apidMPU6050Config, "MPU6050config", ccsds.NoTimeCode, func(f *fieldWriter) {
		f.u8(mpu6050Address, "I2Caddress")
		f.u8(0x11, "self_test_x")
		f.u8(0x12, "self_test_y")
		f.u8(0x0F, "self_test_z")
		f.u8(0x55, "self_test_a")
		f.u8(0x00, "smplrt_div")
		f.u8(0x01, "config")
		f.u8(0x18, "gyro_config")
		f.u8(0x00, "accel_config")
		f.u8(0x00, "mot_thr")
		f.u8(0x00, "int_pin_cfg")
		f.u8(0x00, "int_enable")
		f.u8(0x01, "pwr_mgmt_1")
		f.u8(mpu6050WhoAmI, "whoami")
	}); err != nil {
		return err
	}

	return s.packet(apidHMC5883Config, "HMC5883Lconfig", ccsds.NoTimeCode, func(f *fieldWriter) {
		f.u8(0x70, "config_a")
		f.u8(0x20, "config_b")
		f.u8(0x00, "mode")
		f.u8('H', "id_a")
		f.u8('4', "id_b")
		f.u8('3', "id_c")
	})
}

// measure stamps a reading with the tick it started at and the ticks it
// took.
func (s *station) measure(read func()) (tc ccsds.TimeCode, dt uint32) {
	t0 := s.clock.Now()
	read()
	t1 := s.clock.Now()
	tc = ccsds.TimeCode(t0)
	if tc == ccsds.NoTimeCode {
		tc--
	}
	return tc, ccsds.Delta(t0, t1, 0)
}

func (s *station) noise(center, spread int) int {
	return center - spread + s.rng.IntN(2*spread+1)
}

// writeMeasurements emits one measurement packet per sensor.
func (s *station) writeMeasurements() error {
	var ut, up int64
	tc, dt := s.measure(func() {
		ut = int64(s.noise(27898, 40))
		up = int64(s.noise(23843, 60))
	})
	temp, pressure := s.bmp.compensate(ut, up)
	if err := s.packet(apidBMP180Meas, "BMP180measurement", tc, func(f *fieldWriter) {
		f.u32(uint32(ut), "UT") //nolint:gosec // raw reading is 16-bit
		f.i16(temp, "UT_cal")
		f.u32(uint32(up), "UP") //nolint:gosec // raw reading is 19-bit
		f.u32(pressure, "UP_cal")
		f.u32(dt, "dt")
	}); err != nil {
		return err
	}

	var motion [7]int16
	tc, dt = s.measure(func() {
		centers := [7]int{0, 0, 16384, 0, 0, 0, -2000}
		for i, c := range centers {
			motion[i] = int16(s.noise(c, 200)) //nolint:gosec // bounded noise
		}
	})
	if err := s.packet(apidMPU6050Meas, "MPU6050measurement", tc, func(f *fieldWriter) {
		for i, name := range [7]string{"ax", "ay", "az", "gx", "gy", "gz", "t"} {
			f.i16(motion[i], name)
		}
		f.u32(dt, "dt")
	}); err != nil {
		return err
	}

	var field [3]int16
	tc, dt = s.measure(func() {
		field[0] = int16(s.noise(-120, 15)) //nolint:gosec // bounded noise
		field[1] = int16(s.noise(310, 15))  //nolint:gosec // bounded noise
		field[2] = int16(s.noise(-410, 15)) //nolint:gosec // bounded noise
	})
	return s.packet(apidHMC5883Meas, "HMC5883Lmeasurement", tc, func(f *fieldWriter) {
		f.i16(field[0], "bx")
		f.i16(field[1], "by")
		f.i16(field[2], "bz")
		f.u8(hmc5883Status, "status")
		f.u32(dt, "dt")
	})
}
