package main

import (
	"fmt"
	"math"
	"os"

	"radex/internal/cohort"
	"radex/internal/features"
)

// imageStatsCompute is the built-in extraction collaborator: first-order
// byte statistics over the scan and annotation files. It stands in for a
// real radiomics extractor so the pipeline runs end to end; the statistics
// are deterministic functions of the file contents, so cached records stay
// valid exactly as long as the images do.
func imageStatsCompute(cfg features.Config, input *cohort.Case) (map[string]any, error) {
	record := map[string]any{}

	scanStats, err := byteStats(input.Scan().Path())
	if err != nil {
		return nil, err
	}
	for key, value := range scanStats {
		record["scan_"+key] = value
	}

	annoStats, err := byteStats(input.Anno().Path())
	if err != nil {
		return nil, err
	}
	for key, value := range annoStats {
		record["anno_"+key] = value
	}

	record["diagnostics_extractor"] = "byte-stats"
	if axis, ok := cfg.Settings["slice_axis"]; ok {
		record["diagnostics_slice_axis"] = axis
	}
	return record, nil
}

func byteStats(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image %s is empty", path)
	}

	var histogram [256]float64
	var sum float64
	minimum, maximum := float64(data[0]), float64(data[0])
	for _, b := range data {
		value := float64(b)
		sum += value
		histogram[b]++
		if value < minimum {
			minimum = value
		}
		if value > maximum {
			maximum = value
		}
	}
	count := float64(len(data))
	mean := sum / count

	var variance, entropy float64
	for b, occurrences := range histogram {
		if occurrences == 0 {
			continue
		}
		delta := float64(b) - mean
		variance += occurrences * delta * delta
		p := occurrences / count
		entropy -= p * math.Log2(p)
	}
	variance /= count

	return map[string]float64{
		"size":    count,
		"mean":    mean,
		"stddev":  math.Sqrt(variance),
		"min":     minimum,
		"max":     maximum,
		"entropy": entropy,
	}, nil
}

// adaptiveSliceAxisResolver derives a per-input slicing axis from the scan's
// content hash. The resolved axis lands in the effective configuration, so
// every axis gets its own cache namespace.
func adaptiveSliceAxisResolver(template features.Config, input *cohort.Case) (features.Config, error) {
	effective := features.Config{
		Settings:          map[string]any{},
		AdaptiveSliceAxis: template.AdaptiveSliceAxis,
	}
	for key, value := range template.Settings {
		effective.Settings[key] = value
	}

	fileID := input.Scan().FileID()
	if fileID == "" {
		return features.Config{}, fmt.Errorf("case %s has no scan hash", input.ID())
	}
	effective.Settings["slice_axis"] = float64(fileID[0] % 3)
	return effective, nil
}
