// Package share builds public survey links and their QR codes.
package share

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 256
	MinQRSize     = 128
	MaxQRSize     = 1024
)

// Link returns the public URL of the survey with the given slug.
func Link(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/s/" + slug
}

// ClampSize applies the default and bounds to a requested QR code size.
func ClampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultQRSize
	case size < MinQRSize:
		return MinQRSize
	case size > MaxQRSize:
		return MaxQRSize
	}
	return size
}

// QRCode renders content as a square PNG of ClampSize(size) pixels.
func QRCode(content string, size int) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, ClampSize(size))
}
