package service

// QRCodeService defines the interface for QR code generation services
type QRCodeService interface {
	// GenerateLinkQR renders a link URL as a PNG QR code of the given
	// pixel size.
	GenerateLinkQR(content string, size int) ([]byte, error)
}
