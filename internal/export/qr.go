package export

import (
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

// DefaultQRSize is the PNG edge length in pixels used when none is given.
const DefaultQRSize = 256

// QRCode encodes content as a PNG image.
func QRCode(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrQRCodeFailed, err)
	}
	return png, nil
}
