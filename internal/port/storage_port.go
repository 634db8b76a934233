package port

import (
	"context"
	"time"

	"github.com/veladigital/libro-api/internal/domain"
)

// ReceiptStorage handles voucher files in object storage.
type ReceiptStorage interface {
	Upload(ctx context.Context, path string, file *domain.FileUpload) error
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}
