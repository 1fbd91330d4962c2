// Package audio measures recording length by decoding MP3 frames.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

var ErrNoAudio = errors.New("audio stream is empty")

// go-mp3 always decodes to 16-bit stereo.
const bytesPerSample = 4

// MP3 decodes MP3 bytes to find their playing time.
type MP3 struct{}

func (MP3) Duration(data []byte) (time.Duration, error) {
	if len(data) == 0 {
		return 0, ErrNoAudio
	}
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decode mp3: %w", err)
	}
	length := d.Length()
	rate := d.SampleRate()
	if length <= 0 || rate <= 0 {
		return 0, ErrNoAudio
	}
	samples := length / bytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(rate), nil
}
