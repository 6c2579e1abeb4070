// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrlink

import (
	"fmt"
	"math/rand"
	"os"
	"reflect"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// buildRandomStream creates a stream mixing valid, malformed and unknown lines
func buildRandomStream(rng *rand.Rand) []byte {
	var stream []byte
	lines := rng.Intn(20)
	for i := 0; i < lines; i++ {
		switch rng.Intn(5) {
		case 0, 1:
			stream = fmt.Appendf(stream, "S:%d,%d,%d,%d,%d", rng.Intn(1024), rng.Intn(1024), rng.Intn(2), rng.Intn(7), rng.Intn(101))
		case 2:
			stream = fmt.Appendf(stream, "S:%d,%d", rng.Intn(1024), rng.Intn(1024))
		case 3:
			stream = append(stream, "DEBUG pump cycle"...)
		case 4:
			// whitespace only line
			stream = append(stream, " \t"...)
		}
		if rng.Intn(3) == 0 {
			stream = append(stream, '\r')
		}
		stream = append(stream, Delimiter)
	}
	// Optional trailing partial line
	if rng.Intn(2) == 0 {
		stream = append(stream, "S:12,3"...)
	}
	return stream
}

// splitRandomly cuts data into chunks at random boundaries, including empty chunks
func splitRandomly(rng *rand.Rand, data []byte) [][]byte {
	var chunks [][]byte
	for len(data) > 0 {
		n := rng.Intn(len(data) + 1)
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}

func decodeAll(chunks [][]byte) ([]Frame, []byte) {
	d := NewDecoder()
	var frames []Frame
	for _, c := range chunks {
		frames = append(frames, d.Feed(c)...)
	}
	return frames, append([]byte(nil), d.Pending()...)
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

func TestFuzzDecoder_ChunkBoundaryInvariance(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for round := 0; round < rounds; round++ {
		stream := buildRandomStream(rng)

		whole, wholePending := decodeAll([][]byte{stream})
		split, splitPending := decodeAll(splitRandomly(rng, stream))

		if !reflect.DeepEqual(whole, split) {
			t.Fatalf("round %d: frames differ\nstream: %q\nwhole: %#v\nsplit: %#v", round, stream, whole, split)
		}
		if string(wholePending) != string(splitPending) {
			t.Fatalf("round %d: pending differs: %q vs %q", round, wholePending, splitPending)
		}
	}
}

func TestFuzzDecoder_ByteAtATime(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds() / 10
	if rounds == 0 {
		rounds = 1
	}

	for round := 0; round < rounds; round++ {
		stream := buildRandomStream(rng)

		chunks := make([][]byte, len(stream))
		for i := range stream {
			chunks[i] = stream[i : i+1]
		}

		whole, _ := decodeAll([][]byte{stream})
		single, _ := decodeAll(chunks)
		if !reflect.DeepEqual(whole, single) {
			t.Fatalf("round %d: byte-at-a-time decoding differs for %q", round, stream)
		}
	}
}

func TestFuzzDecoder_RandomBytesNeverPanic(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	d := NewDecoder()

	for round := 0; round < rounds; round++ {
		chunk := make([]byte, rng.Intn(64))
		rng.Read(chunk)
		for _, f := range d.Feed(chunk) {
			if f.Line() == "" {
				t.Fatalf("round %d: emitted empty frame", round)
			}
		}
	}
}
