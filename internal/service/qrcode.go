package service

import (
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

// TableQRGenerator renders the table-specific menu link as a QR code PNG.
type TableQRGenerator struct {
	BaseURL string
}

func (g TableQRGenerator) Generate(slug, tableNumber string) ([]byte, error) {
	link := fmt.Sprintf("%s/r/%s?table=%s", g.BaseURL, url.PathEscape(slug), url.QueryEscape(tableNumber))
	return qrcode.Encode(link, qrcode.Medium, 256)
}
