package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"miditoarduino/headerout"
	"miditoarduino/inputpick"
)

const canon = "testdata/Two-Voice Canon.txt"

func TestConvertCanon(t *testing.T) {
	res, err := convert(canon, 0, nil)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	t1, t2 := res.Track(1), res.Track(2)
	if want := []string{"NOTE_C5", "0", "NOTE_DS5", "0"}; !reflect.DeepEqual(t1.Notes, want) {
		t.Fatalf("Notes1 = %v, want %v", t1.Notes, want)
	}
	if want := []int{500, 500, 1000, 4000}; !reflect.DeepEqual(t1.Durations, want) {
		t.Fatalf("Durations1 = %v, want %v", t1.Durations, want)
	}
	if want := []string{"0", "NOTE_G3", "0"}; !reflect.DeepEqual(t2.Notes, want) {
		t.Fatalf("Notes2 = %v, want %v", t2.Notes, want)
	}
	if want := []int{500, 3500, 2000}; !reflect.DeepEqual(t2.Durations, want) {
		t.Fatalf("Durations2 = %v, want %v", t2.Durations, want)
	}
}

func TestConvertMissingFile(t *testing.T) {
	if _, err := convert(filepath.Join(t.TempDir(), "nope.txt"), 0, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestHeaderAndPitchesForCanon(t *testing.T) {
	res, err := convert(canon, 0, nil)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	dir := t.TempDir()
	name := headerout.Name(inputpick.Stem(canon))
	if name != "Two_Voice_Canon" {
		t.Fatalf("name = %q", name)
	}

	path, err := headerout.WriteFile(dir, name, res, headerout.DefaultStorage)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "const int Two_Voice_Canon_Durations2[] PROGMEM = {\n  500, 3500, 2000\n};") {
		t.Fatalf("unexpected header:\n%s", data)
	}

	pitchPath, err := writePitches(dir, res)
	if err != nil {
		t.Fatalf("writePitches: %v", err)
	}
	data, err = os.ReadFile(pitchPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"#define NOTE_G3 196", "#define NOTE_C5 523", "#define NOTE_DS5 622"} {
		if !strings.Contains(string(data), line) {
			t.Errorf("pitches.h missing %q:\n%s", line, data)
		}
	}
}
