package transcoder

import (
	"context"
	"testing"
)

func TestParseHeight(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    int
		wantErr bool
	}{
		{"plain", "1080\n", 1080, false},
		{"trailing comma", "720,\n", 720, false},
		{"leading blank lines", "\n\n2160\n", 2160, false},
		{"multiple streams", "1080\n480\n", 1080, false},
		{"empty", "", 0, true},
		{"garbage", "N/A\n", 0, true},
		{"zero", "0\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHeight(tt.output)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHeight(%q) error = %v, wantErr %v", tt.output, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseHeight(%q) = %d, want %d", tt.output, got, tt.want)
			}
		})
	}
}

func TestProbeHeight(t *testing.T) {
	script := writeScript(t, `echo 1440`)
	h, err := NewProber(script).ProbeHeight(context.Background(), "clip.mp4")
	if err != nil {
		t.Fatalf("ProbeHeight: %v", err)
	}
	if h != 1440 {
		t.Errorf("height = %d, want 1440", h)
	}
}

func TestProbeHeightFailure(t *testing.T) {
	script := writeScript(t, `echo "clip.mp4: Invalid data found" >&2; exit 1`)
	if _, err := NewProber(script).ProbeHeight(context.Background(), "clip.mp4"); err == nil {
		t.Error("expected error for failing ffprobe")
	}
}

func TestCheckFFmpeg(t *testing.T) {
	script := writeScript(t, `echo "ffmpeg version 7.1 Copyright (c) 2000-2024"; echo "built with gcc"`)

	path, version, err := CheckFFmpeg(context.Background(), script)
	if err != nil {
		t.Fatalf("CheckFFmpeg: %v", err)
	}
	if path != script {
		t.Errorf("path = %q, want %q", path, script)
	}
	if version != "ffmpeg version 7.1 Copyright (c) 2000-2024" {
		t.Errorf("version = %q", version)
	}
}

func TestCheckFFmpegMissing(t *testing.T) {
	if _, _, err := CheckFFmpeg(context.Background(), "definitely-not-a-real-binary-xyz"); err == nil {
		t.Error("expected error for missing binary")
	}
}
