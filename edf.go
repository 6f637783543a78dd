// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package reject

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// RecordingInfo carries the identity fields of an EDF/EDF+ header.
type RecordingInfo struct {
	PatientID   string
	RecordingID string
	StartTime   time.Time
}

// edfSignal is the per-signal header of an EDF/EDF+ file.
type edfSignal struct {
	Label            string
	TransducerType   string
	Dimension        string
	PhysicalMin      float64
	PhysicalMax      float64
	DigitalMin       int
	DigitalMax       int
	Prefiltering     string
	SamplesPerRecord int
}

// Per-signal header column widths, in file order.
var signalFieldWidths = []int{16, 80, 8, 8, 8, 8, 8, 80, 8, 32}

// ReadEDF reads an EDF/EDF+ recording and epochs it into equal-length
// trials of the given duration, returning the dataset, the matching
// interval table (one [begin, end, offset] row per trial, in samples of the
// continuous recording) and the recording identity. Trailing samples that do
// not fill a whole epoch are discarded. All signals must share one sampling
// rate.
func ReadEDF(r io.Reader, epoch time.Duration) (*Dataset, Trl, RecordingInfo, error) {
	br := bufio.NewReader(r)

	b := make([]byte, 256)
	if _, err := io.ReadFull(br, b); err != nil {
		return nil, nil, RecordingInfo{}, fmt.Errorf("error reading header: %w", err)
	}

	info := RecordingInfo{
		PatientID:   strings.TrimSpace(string(b[8:88])),
		RecordingID: strings.TrimSpace(string(b[88:168])),
	}

	startDate, err := time.Parse("02.01.06", strings.TrimSpace(string(b[168:176])))
	if err != nil {
		return nil, nil, RecordingInfo{}, fmt.Errorf("error parsing start date: %w", err)
	}
	startTime, err := time.Parse("15.04.05", strings.TrimSpace(string(b[176:184])))
	if err != nil {
		return nil, nil, RecordingInfo{}, fmt.Errorf("error parsing start time: %w", err)
	}
	info.StartTime = time.Date(startDate.Year(), startDate.Month(), startDate.Day(),
		startTime.Hour(), startTime.Minute(), startTime.Second(), 0, time.UTC)

	dataRecords, err := strconv.Atoi(strings.TrimSpace(string(b[236:244])))
	if err != nil {
		return nil, nil, RecordingInfo{}, fmt.Errorf("error parsing number of data records: %w", err)
	}
	recordDuration, err := time.ParseDuration(fmt.Sprintf("%ss", strings.TrimSpace(string(b[244:252]))))
	if err != nil {
		return nil, nil, RecordingInfo{}, fmt.Errorf("error parsing data record duration: %w", err)
	}
	signalCount, err := strconv.Atoi(strings.TrimSpace(string(b[252:256])))
	if err != nil {
		return nil, nil, RecordingInfo{}, fmt.Errorf("error parsing signal count: %w", err)
	}
	if signalCount <= 0 {
		return nil, nil, RecordingInfo{}, fmt.Errorf("recording has no signals")
	}

	signals, err := readSignalHeaders(br, signalCount)
	if err != nil {
		return nil, nil, RecordingInfo{}, err
	}

	spr := signals[0].SamplesPerRecord
	for _, sig := range signals {
		if sig.SamplesPerRecord != spr {
			return nil, nil, RecordingInfo{}, fmt.Errorf("mixed sampling rates: signal %q has %d samples per record, expected %d",
				sig.Label, sig.SamplesPerRecord, spr)
		}
	}
	if spr <= 0 || recordDuration <= 0 {
		return nil, nil, RecordingInfo{}, fmt.Errorf("invalid record geometry: %d samples per %v record", spr, recordDuration)
	}
	fs := float64(spr) / recordDuration.Seconds()

	// Decode every data record into continuous per-channel sample streams.
	continuous := make([][]float64, signalCount)
	record := make([]byte, signalCount*spr*2)
	for rec := 0; dataRecords < 0 || rec < dataRecords; rec++ {
		if _, err := io.ReadFull(br, record); err != nil {
			if dataRecords < 0 && (err == io.EOF || err == io.ErrUnexpectedEOF) {
				break
			}
			return nil, nil, RecordingInfo{}, fmt.Errorf("error reading data record %d: %w", rec, err)
		}
		for i, sig := range signals {
			off := i * spr * 2
			for s := 0; s < spr; s++ {
				digital := int16(binary.LittleEndian.Uint16(record[off+s*2 : off+s*2+2]))
				continuous[i] = append(continuous[i], digitalToPhysical(digital, sig))
			}
		}
	}

	epochSamples := int(math.Round(epoch.Seconds() * fs))
	if epochSamples <= 0 {
		return nil, nil, RecordingInfo{}, fmt.Errorf("epoch %v is shorter than one sample at %g Hz", epoch, fs)
	}
	ntrials := len(continuous[0]) / epochSamples

	ds := &Dataset{FSample: fs}
	for _, sig := range signals {
		ds.Labels = append(ds.Labels, sig.Label)
	}
	trl := make(Trl, 0, ntrials)
	for t := 0; t < ntrials; t++ {
		begin := t * epochSamples
		tv := make([]float64, epochSamples)
		for s := range tv {
			tv[s] = float64(s) / fs
		}
		trial := make([][]float64, signalCount)
		for i := range continuous {
			trial[i] = continuous[i][begin : begin+epochSamples]
		}
		ds.Time = append(ds.Time, tv)
		ds.Trials = append(ds.Trials, trial)
		trl = append(trl, []int{begin, begin + epochSamples - 1, 0})
	}

	return ds, trl, info, nil
}

// readSignalHeaders parses the per-signal header block, which stores each
// field as a column across all signals.
func readSignalHeaders(r io.Reader, count int) ([]edfSignal, error) {
	b := make([]byte, count*256)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("error reading signal headers: %w", err)
	}

	// Each field is stored as a column across all signals; block k starts
	// at the cumulative width of the blocks before it.
	offsets := make([]int, len(signalFieldWidths))
	for i := 1; i < len(signalFieldWidths); i++ {
		offsets[i] = offsets[i-1] + signalFieldWidths[i-1]
	}
	field := func(k, i int) string {
		start := offsets[k]*count + i*signalFieldWidths[k]
		return strings.TrimSpace(string(b[start : start+signalFieldWidths[k]]))
	}

	signals := make([]edfSignal, count)
	for i := range signals {
		signals[i] = edfSignal{
			Label:            field(0, i),
			TransducerType:   field(1, i),
			Dimension:        field(2, i),
			PhysicalMin:      parseFloatField(field(3, i)),
			PhysicalMax:      parseFloatField(field(4, i)),
			DigitalMin:       parseIntField(field(5, i)),
			DigitalMax:       parseIntField(field(6, i)),
			Prefiltering:     field(7, i),
			SamplesPerRecord: parseIntField(field(8, i)),
		}
	}
	return signals, nil
}

// WriteEDF writes the dataset as an EDF file, one data record per trial.
// Every trial must have the same sample count and the dataset must carry its
// sampling rate. Calibration ranges are derived from the data.
func WriteEDF(w io.Writer, ds *Dataset, info RecordingInfo) error {
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("invalid dataset: %w", err)
	}
	if len(ds.Trials) == 0 {
		return fmt.Errorf("dataset has no trials")
	}
	if ds.FSample <= 0 {
		return fmt.Errorf("dataset has no sampling rate")
	}
	spr := len(ds.Time[0])
	for i, tv := range ds.Time {
		if len(tv) != spr {
			return fmt.Errorf("trial %d has %d samples, expected %d: EDF records must be uniform", i, len(tv), spr)
		}
	}
	if len(ds.Labels)*spr*2 > 61440 {
		// Record size cap recommended by the EDF standard.
		return fmt.Errorf("data record too large: %d bytes, max is 61440 bytes", len(ds.Labels)*spr*2)
	}

	signals := make([]edfSignal, len(ds.Labels))
	for i, label := range ds.Labels {
		lo, hi := channelRange(ds.Trials, i)
		// Round the calibration range to the precision the header can
		// store, so written and re-read samples agree.
		lo = parseFloatField(formatPhysicalValue(lo))
		hi = parseFloatField(formatPhysicalValue(hi))
		if hi <= lo {
			hi = lo + 1 // Avoid a degenerate calibration range.
		}
		signals[i] = edfSignal{
			Label:            label,
			PhysicalMin:      lo,
			PhysicalMax:      hi,
			DigitalMin:       -32768,
			DigitalMax:       32767,
			SamplesPerRecord: spr,
		}
	}

	bw := bufio.NewWriter(w)
	fw := &fieldWriter{w: bw}

	fw.pad(8, "0") // Version.
	fw.pad(80, info.PatientID)
	fw.pad(80, info.RecordingID)
	fw.pad(8, info.StartTime.Format("02.01.06"))
	fw.pad(8, info.StartTime.Format("15.04.05"))
	fw.pad(8, strconv.Itoa(256+len(signals)*256))
	fw.pad(44, "")
	fw.pad(8, strconv.Itoa(len(ds.Trials)))
	fw.pad(8, strconv.FormatFloat(float64(spr)/ds.FSample, 'g', -1, 64))
	fw.pad(4, strconv.Itoa(len(signals)))

	for _, sig := range signals {
		fw.pad(16, sig.Label)
	}
	for _, sig := range signals {
		fw.pad(80, sig.TransducerType)
	}
	for _, sig := range signals {
		fw.pad(8, sig.Dimension)
	}
	for _, sig := range signals {
		fw.pad(8, formatPhysicalValue(sig.PhysicalMin))
	}
	for _, sig := range signals {
		fw.pad(8, formatPhysicalValue(sig.PhysicalMax))
	}
	for _, sig := range signals {
		fw.pad(8, strconv.Itoa(sig.DigitalMin))
	}
	for _, sig := range signals {
		fw.pad(8, strconv.Itoa(sig.DigitalMax))
	}
	for _, sig := range signals {
		fw.pad(80, sig.Prefiltering)
	}
	for _, sig := range signals {
		fw.pad(8, strconv.Itoa(sig.SamplesPerRecord))
	}
	for range signals {
		fw.pad(32, "")
	}
	if fw.err != nil {
		return fmt.Errorf("error writing header: %w", fw.err)
	}

	for _, trial := range ds.Trials {
		for i, row := range trial {
			for _, sample := range row {
				digital := physicalToDigital(sample, signals[i])
				if err := binary.Write(bw, binary.LittleEndian, digital); err != nil {
					return fmt.Errorf("error writing data record: %w", err)
				}
			}
		}
	}

	return bw.Flush()
}

// fieldWriter writes space-padded fixed-width header fields, holding the
// first error.
type fieldWriter struct {
	w   *bufio.Writer
	err error
}

func (fw *fieldWriter) pad(width int, s string) {
	if fw.err != nil {
		return
	}
	if len(s) > width {
		s = s[:width]
	}
	_, fw.err = fmt.Fprintf(fw.w, "%-*s", width, s)
}

// channelRange returns the min and max sample value of one channel across
// all trials.
func channelRange(trials [][][]float64, ch int) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, trial := range trials {
		for _, v := range trial[ch] {
			if math.IsNaN(v) {
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

// digitalToPhysical converts a stored sample to a physical value using the
// signal's calibration factors.
func digitalToPhysical(digital int16, sig edfSignal) float64 {
	if sig.DigitalMax == sig.DigitalMin {
		return 0 // Avoid division by zero.
	}
	return sig.PhysicalMin + (float64(digital)-float64(sig.DigitalMin))*
		(sig.PhysicalMax-sig.PhysicalMin)/float64(sig.DigitalMax-sig.DigitalMin)
}

// physicalToDigital converts a physical value to its stored representation.
// NaN samples map to the digital minimum.
func physicalToDigital(physical float64, sig edfSignal) int16 {
	if math.IsNaN(physical) {
		return int16(sig.DigitalMin)
	}
	if sig.PhysicalMax == sig.PhysicalMin {
		return 0 // Avoid division by zero.
	}
	digital := (physical-sig.PhysicalMin)*float64(sig.DigitalMax-sig.DigitalMin)/
		(sig.PhysicalMax-sig.PhysicalMin) + float64(sig.DigitalMin)
	// Clamp values the calibration range cannot represent.
	digital = math.Round(digital)
	if digital < float64(sig.DigitalMin) {
		digital = float64(sig.DigitalMin)
	}
	if digital > float64(sig.DigitalMax) {
		digital = float64(sig.DigitalMax)
	}
	return int16(digital)
}

func parseFloatField(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseIntField(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func formatPhysicalValue(val float64) string {
	// Try with 2 decimal places, fall back to none if it does not fit.
	s := strconv.FormatFloat(val, 'f', 2, 64)
	if len(s) > 8 {
		s = strconv.FormatFloat(val, 'f', 0, 64)
	}
	return s
}
