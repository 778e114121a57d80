package featurefilter

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func dummyRecords(entries, cases int) []Record {
	records := make([]Record, cases)
	for i := range records {
		record := make(Record, entries*2)
		for index := 0; index < entries; index++ {
			record[fmt.Sprintf("diagnostics_%d", index)] = float64(index) / float64(entries)
			record[fmt.Sprintf("%d", index)] = float64(index)
		}
		records[i] = record
	}
	return records
}

func TestNewRejectsUnknownKind(t *testing.T) {
	if _, err := New(Kind("sharpen"), Params{}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestNewValidatesParams(t *testing.T) {
	if _, err := NewRandomChoice(1.5, 0, false, false); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for fraction > 1, got %v", err)
	}
	if _, err := NewImportanceThreshold(nil, 0.5, false); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for nil importances, got %v", err)
	}
}

func TestFormRoundTripPreservesID(t *testing.T) {
	inner := NewKeyPrefix("diagnostics_", true)
	outer, err := NewRandomChoice(0.5, 7, false, false, inner)
	if err != nil {
		t.Fatalf("NewRandomChoice failed: %v", err)
	}

	form, err := outer.CanonicalForm()
	if err != nil {
		t.Fatalf("CanonicalForm failed: %v", err)
	}
	decoded, err := Decode(form)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	originalID, err := outer.StableID()
	if err != nil {
		t.Fatalf("StableID failed: %v", err)
	}
	decodedID, err := decoded.StableID()
	if err != nil {
		t.Fatalf("StableID failed: %v", err)
	}
	if originalID != decodedID {
		t.Errorf("IDs differ after round trip: %s != %s", originalID, decodedID)
	}
}

func TestKeyPrefixComplementLaw(t *testing.T) {
	records := dummyRecords(20, 10)

	keep := NewKeyPrefix("diagnostics_", false)
	drop := NewKeyPrefix("diagnostics_", true)

	kept, err := keep.Apply(records)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	dropped, err := drop.Apply(records)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for i := range records {
		merged := make(Record, len(records[i]))
		for key, value := range kept[i] {
			merged[key] = value
		}
		for key, value := range dropped[i] {
			if _, exists := merged[key]; exists {
				t.Fatalf("field %q landed on both sides", key)
			}
			merged[key] = value
		}
		if !reflect.DeepEqual(merged, records[i]) {
			t.Errorf("record %d: complement halves do not reassemble the original", i)
		}
	}
}

func TestImportanceThreshold(t *testing.T) {
	records := []Record{{"strong": 1.0, "weak": 2.0, "unknown": 3.0}}
	importances := map[string]float64{"strong": 0.9, "weak": 0.1}

	filter, err := NewImportanceThreshold(importances, 0.5, false)
	if err != nil {
		t.Fatalf("NewImportanceThreshold failed: %v", err)
	}
	filtered, err := filter.Apply(records)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(filtered[0]) != 1 {
		t.Fatalf("expected only the strong feature, got %v", filtered[0])
	}
	if _, ok := filtered[0]["strong"]; !ok {
		t.Errorf("strong feature missing: %v", filtered[0])
	}

	inverted, err := NewImportanceThreshold(importances, 0.5, true)
	if err != nil {
		t.Fatalf("NewImportanceThreshold failed: %v", err)
	}
	complement, err := inverted.Apply(records)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(complement[0]) != 2 {
		t.Errorf("expected weak and unknown features, got %v", complement[0])
	}
}

func TestRandomChoiceDeterministicAndComplementary(t *testing.T) {
	records := dummyRecords(20, 10)
	total := len(records[0])
	fraction := 0.5

	results := map[bool][]Record{}
	for _, invert := range []bool{false, true} {
		filter, err := NewRandomChoice(fraction, 0, false, invert)
		if err != nil {
			t.Fatalf("NewRandomChoice failed: %v", err)
		}
		filtered, err := filter.Apply(records)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		results[invert] = filtered

		wantColumns := total / 2
		if invert {
			wantColumns = total - total/2
		}
		if len(filtered[0]) != wantColumns {
			t.Errorf("invert=%v: got %d columns, want %d", invert, len(filtered[0]), wantColumns)
		}

		// Same seed, same selection.
		again, err := NewRandomChoice(fraction, 0, false, invert)
		if err != nil {
			t.Fatalf("NewRandomChoice failed: %v", err)
		}
		repeat, err := again.Apply(records)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if !reflect.DeepEqual(filtered, repeat) {
			t.Errorf("invert=%v: same seed produced different selections", invert)
		}
	}

	// Non-inverted plus inverted reassembles the original records.
	for i := range records {
		merged := make(Record, total)
		for key, value := range results[false][i] {
			merged[key] = value
		}
		for key, value := range results[true][i] {
			merged[key] = value
		}
		if !reflect.DeepEqual(merged, records[i]) {
			t.Errorf("record %d: selection and complement do not reassemble the original", i)
		}
	}
}

func TestRandomChoiceSeedIncreases(t *testing.T) {
	records := dummyRecords(10, 3)

	filter, err := NewRandomChoice(0.5, 5, true, false)
	if err != nil {
		t.Fatalf("NewRandomChoice failed: %v", err)
	}
	if _, err := filter.Apply(records); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if filter.Seed() != 6 {
		t.Errorf("seed did not advance: %d", filter.Seed())
	}

	fixed, err := NewRandomChoice(0.5, 5, false, false)
	if err != nil {
		t.Fatalf("NewRandomChoice failed: %v", err)
	}
	if _, err := fixed.Apply(records); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if fixed.Seed() != 5 {
		t.Errorf("seed advanced without increase_seed: %d", fixed.Seed())
	}
}

func TestSubfilterMergeLaterOverrides(t *testing.T) {
	records := []Record{{"key_1": "base", "other": "untouched"}}

	first := NewKeyPrefix("key_", false)
	second := NewKeyPrefix("other", false)
	// Both subfilters see the original input; outputs merge per index.
	merged := NewPassthrough(first, second)

	result, err := merged.Apply(records)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	want := Record{"key_1": "base", "other": "untouched"}
	if !reflect.DeepEqual(result[0], want) {
		t.Errorf("merge mismatch: got %v want %v", result[0], want)
	}

	// Overlapping fields: the later subfilter wins.
	overlapA := NewKeyPrefix("key_", false)
	overlapB := NewKeyPrefix("key_", false)
	stacked := NewPassthrough(overlapA, overlapB)
	overlapping := []Record{{"key_1": "value"}}
	result, err = stacked.Apply(overlapping)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result[0]["key_1"] != "value" {
		t.Errorf("unexpected merged value: %v", result[0])
	}

	// The merge must not mutate the caller's records.
	if records[0]["key_1"] != "base" {
		t.Error("input records were mutated")
	}
}

func TestPassthroughWithoutSubfiltersIsIdentity(t *testing.T) {
	records := dummyRecords(5, 2)
	filter := NewPassthrough()
	result, err := filter.Apply(records)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !reflect.DeepEqual(result, records) {
		t.Error("passthrough altered records")
	}
}
