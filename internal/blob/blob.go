// Package blob stores payment receipt images behind an opaque reference.
package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("blob not found")
	ErrTooLarge = errors.New("blob too large")
	ErrNotImage = errors.New("blob is not an image")
)

// MaxReceiptSize is the largest receipt accepted, in bytes.
const MaxReceiptSize = 5 << 20

type Object struct {
	Data        []byte
	ContentType string
}

// Store persists receipt images. Put returns the reference that is stored on
// installments; the other methods take that reference back.
type Store interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	Get(ctx context.Context, ref string) (Object, error)
	Delete(ctx context.Context, ref string) error
	Ping(ctx context.Context) error
}

// NewReceiptKey returns a fresh object key for a receipt of contentType.
func NewReceiptKey(contentType string) string {
	return "receipts/" + uuid.NewString() + extensionFor(contentType)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// ValidateReceipt checks size and sniffs the content type, which must be an
// image. It returns the sniffed content type.
func ValidateReceipt(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrNotImage)
	}
	if len(data) > MaxReceiptSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), MaxReceiptSize)
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, ct)
	}
	return ct, nil
}

// DecodeDataURL extracts the payload of a base64 data URL such as
// "data:image/png;base64,iVBOR...". The declared media type is ignored;
// ValidateReceipt sniffs the bytes instead.
func DecodeDataURL(s string) ([]byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return nil, fmt.Errorf("%w: not a data URL", ErrNotImage)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data URL must be base64 encoded", ErrNotImage)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxReceiptSize+3 {
		return nil, fmt.Errorf("%w: data URL exceeds %d bytes", ErrTooLarge, MaxReceiptSize)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decode data URL: %v", ErrNotImage, err)
	}
	return data, nil
}
