package audio

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// silentFrames builds n MPEG1 Layer III frames at 128 kbps, 44.1 kHz, with
// zeroed side info and main data.
func silentFrames(n int) []byte {
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x00})
	return bytes.Repeat(frame, n)
}

func TestDurationOfSilentFrames(t *testing.T) {
	got, err := (MP3{}).Duration(silentFrames(100))
	if err != nil {
		t.Fatalf("Duration() error = %v", err)
	}
	// 100 frames x 1152 samples / 44100 Hz
	want := 2612 * time.Millisecond
	if diff := got - want; diff < -5*time.Millisecond || diff > 5*time.Millisecond {
		t.Fatalf("Duration() = %v, want about %v", got, want)
	}
	if got.Milliseconds() != 2612 {
		t.Fatalf("milliseconds = %d, want 2612", got.Milliseconds())
	}
}

func TestDurationEmpty(t *testing.T) {
	if _, err := (MP3{}).Duration(nil); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("error = %v, want ErrNoAudio", err)
	}
}

func TestDurationGarbage(t *testing.T) {
	if _, err := (MP3{}).Duration([]byte("definitely not an mp3 stream")); err == nil {
		t.Fatal("expected decode error")
	}
}
