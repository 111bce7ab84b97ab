package sniffer

import (
	"errors"
	"testing"
)

func TestDetectHead(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want MediaType
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}, TypeJPEG},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}, TypePNG},
		{"gif87", []byte("GIF87a......"), TypeGIF},
		{"gif89", []byte("GIF89a......"), TypeGIF},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), TypeWEBP},
	}
	for _, tt := range tests {
		result, err := DetectHead(tt.head)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if result.Type != tt.want {
			t.Errorf("%s: type = %q, want %q", tt.name, result.Type, tt.want)
		}
		if result.MIME == "" {
			t.Errorf("%s: empty mime", tt.name)
		}
	}
}

func TestDetectHeadRejectsUnknown(t *testing.T) {
	for _, head := range [][]byte{nil, {}, []byte("<svg xmlns="), []byte("BM6\x00"), []byte("%PDF-1.7")} {
		if _, err := DetectHead(head); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("head %q: err = %v, want ErrUnsupportedType", head, err)
		}
	}
}
