package service

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const (
	qrSize      = 256
	qrURIPrefix = "data:image/png;base64,"
)

// RenderQR encodes content as a PNG QR code and returns it as a data
// URI that can be dropped straight into an <img src>.
func RenderQR(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return qrURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
