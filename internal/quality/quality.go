// Package quality maps a probed video height and an encoder family to the
// ffmpeg encoder arguments used by compression runs.
package quality

import (
	"fmt"
	"strconv"
	"strings"
)

// Codec is the encoder family chosen for a compression job.
type Codec string

const (
	// CodecAV1 encodes with the hardware AV1 encoder.
	CodecAV1 Codec = "av1"
	// CodecHEVC encodes with the hardware HEVC encoder.
	CodecHEVC Codec = "hevc"
	// CodecH264 encodes with the hardware H.264 encoder.
	CodecH264 Codec = "h264"
	// CodecCPU encodes with software x264.
	CodecCPU Codec = "cpu"
)

const (
	// BaseQuantizer is the starting quantization value before resolution bumps.
	BaseQuantizer = 32
	// DefaultHeight is assumed when a video's height cannot be probed.
	DefaultHeight = 1080

	keyframeInterval = 120
	lookahead        = 32
)

// Codecs lists the supported codec choices.
var Codecs = []Codec{CodecAV1, CodecHEVC, CodecH264, CodecCPU}

// ParseCodec accepts a codec name in any case.
func ParseCodec(s string) (Codec, error) {
	c := Codec(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Codecs {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown codec %q (want one of av1, hevc, h264, cpu)", s)
}

// Hardware reports whether the codec uses the hardware-accelerated path.
func (c Codec) Hardware() bool {
	return c == CodecAV1 || c == CodecHEVC || c == CodecH264
}

// Parameters are the encoder settings for one file.
type Parameters struct {
	Encoder      string
	QualityFlag  string // "-cq" or "-crf"
	QualityValue int
	ExtraArgs    []string
}

// Args renders the parameters as ffmpeg output options.
func (p Parameters) Args() []string {
	args := make([]string, 0, 4+len(p.ExtraArgs))
	args = append(args, "-c:v", p.Encoder, p.QualityFlag, strconv.Itoa(p.QualityValue))
	return append(args, p.ExtraArgs...)
}

// Base returns the quantization value for a video height. Higher resolutions
// tolerate a higher value at the same perceived quality. A height of zero
// or less counts as DefaultHeight.
func Base(height int) int {
	if height <= 0 {
		height = DefaultHeight
	}
	base := BaseQuantizer
	if height > 1200 {
		base += 2
	}
	if height > 1700 {
		base += 4
	}
	return base
}

type hardwareProfile struct {
	encoder   string
	offset    int
	bFrames   int
	multipass bool
}

var hardwareProfiles = map[Codec]hardwareProfile{
	CodecAV1:  {encoder: "av1_nvenc", offset: 0, bFrames: 7, multipass: true},
	CodecHEVC: {encoder: "hevc_nvenc", offset: -4, bFrames: 5, multipass: true},
	CodecH264: {encoder: "h264_nvenc", offset: -8, bFrames: 3, multipass: false},
}

// Derive returns fresh encoder parameters for a file of the given height.
// Codec names are matched in any case; only CodecCPU and names ParseCodec
// rejects get the CPU encoder.
func Derive(height int, codec Codec) Parameters {
	base := Base(height)
	if c, err := ParseCodec(string(codec)); err == nil {
		codec = c
	}

	profile, ok := hardwareProfiles[codec]
	if !ok {
		return Parameters{
			Encoder:      "libx264",
			QualityFlag:  "-crf",
			QualityValue: base - 6,
			ExtraArgs: []string{
				"-preset", "slow",
				"-tune", "film",
				"-g", strconv.Itoa(keyframeInterval),
				"-bf", "3",
				"-c:a", "copy",
			},
		}
	}

	extra := []string{
		"-bf", strconv.Itoa(profile.bFrames),
		"-rc-lookahead", strconv.Itoa(lookahead),
		"-spatial-aq", "1",
		"-temporal-aq", "1",
		"-g", strconv.Itoa(keyframeInterval),
	}
	if profile.multipass {
		extra = append(extra, "-multipass", "fullres")
	}
	extra = append(extra, "-c:a", "copy")

	return Parameters{
		Encoder:      profile.encoder,
		QualityFlag:  "-cq",
		QualityValue: base + profile.offset,
		ExtraArgs:    extra,
	}
}
