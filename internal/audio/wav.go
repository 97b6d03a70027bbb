package audio

import (
	"encoding/binary"
	"fmt"
)

// Normalization target: single channel at 16 kHz, 16-bit PCM.
const (
	TargetChannels   = 1
	TargetSampleRate = 16000
)

const pcmFormat = 1

type wavData struct {
	channels   int
	sampleRate int
	bitsPerSam int
	samples    []int16 // interleaved frames
}

// Info returns channel count and sample rate of a WAV payload.
func Info(data []byte) (channels, sampleRate int, err error) {
	w, err := parseWAV(data)
	if err != nil {
		return 0, 0, err
	}
	return w.channels, w.sampleRate, nil
}

// NormalizeWAV converts 16-bit PCM WAV bytes of any channel count and
// sample rate to mono 16 kHz. Pure: no I/O, deterministic output.
func NormalizeWAV(data []byte) ([]byte, error) {
	w, err := parseWAV(data)
	if err != nil {
		return nil, err
	}

	mono := downmix(w.samples, w.channels)
	resampled := resample(mono, w.sampleRate, TargetSampleRate)
	return encodeWAV(resampled, TargetSampleRate), nil
}

func parseWAV(data []byte) (*wavData, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, &ConversionError{Format: FormatWAV, Reason: "not a RIFF/WAVE stream"}
	}

	w := &wavData{}
	var haveFmt, haveData bool

	// Walk the chunk list; only fmt and data matter here.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return nil, &ConversionError{Format: FormatWAV, Reason: "truncated chunk " + id}
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, &ConversionError{Format: FormatWAV, Reason: "fmt chunk too short"}
			}
			audioFormat := int(binary.LittleEndian.Uint16(data[body : body+2]))
			if audioFormat != pcmFormat {
				return nil, &ConversionError{
					Format: FormatWAV,
					Reason: fmt.Sprintf("unsupported audio format tag %d, want PCM", audioFormat),
				}
			}
			w.channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			w.sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			w.bitsPerSam = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, &ConversionError{Format: FormatWAV, Reason: "data chunk before fmt chunk"}
			}
			if w.bitsPerSam != 16 {
				return nil, &ConversionError{
					Format: FormatWAV,
					Reason: fmt.Sprintf("unsupported bit depth %d, want 16", w.bitsPerSam),
				}
			}
			n := size / 2
			w.samples = make([]int16, n)
			for i := 0; i < n; i++ {
				w.samples[i] = int16(binary.LittleEndian.Uint16(data[body+2*i : body+2*i+2]))
			}
			haveData = true
		}

		// Chunks are word aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if !haveFmt || !haveData {
		return nil, &ConversionError{Format: FormatWAV, Reason: "missing fmt or data chunk"}
	}
	if w.channels == 0 || w.sampleRate == 0 {
		return nil, &ConversionError{Format: FormatWAV, Reason: "invalid fmt chunk"}
	}
	return w, nil
}

// downmix averages interleaved frames into a single channel.
func downmix(samples []int16, channels int) []int16 {
	if channels == 1 {
		return samples
	}

	frames := len(samples) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += int(samples[i*channels+c])
		}
		out[i] = int16(sum / channels)
	}
	return out
}

// resample converts mono samples from srcRate to dstRate using linear
// interpolation.
func resample(samples []int16, srcRate, dstRate int) []int16 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}

	n := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if n == 0 {
		n = 1
	}
	out := make([]int16, n)
	ratio := float64(srcRate) / float64(dstRate)
	for i := 0; i < n; i++ {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(j)
		a := float64(samples[j])
		b := float64(samples[j+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}

// encodeWAV writes mono 16-bit PCM samples as a canonical WAV file.
func encodeWAV(samples []int16, sampleRate int) []byte {
	dataSize := len(samples) * 2
	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], pcmFormat)
	binary.LittleEndian.PutUint16(buf[22:24], TargetChannels)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*TargetChannels*2)) // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], TargetChannels*2)                    // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16)                                  // bits per sample

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[44+2*i:46+2*i], uint16(s))
	}
	return buf
}
