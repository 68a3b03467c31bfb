// Package artifact renders the scannable verification image for a product.
package artifact

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/supplytrace/provenance/internal/core/domain"
	"github.com/supplytrace/provenance/internal/core/ports"
	"github.com/supplytrace/provenance/internal/pkg/metrics"
)

const defaultSize = 256

// QRGenerator writes one PNG per product into Dir, named after the product id.
// The payload is the product id and the error-correction level is fixed at
// the highest tier.
type QRGenerator struct {
	dir  string
	size int
	log  zerolog.Logger
}

// NewQRGenerator creates dir if needed and returns a generator writing into it.
func NewQRGenerator(dir string, size int, log zerolog.Logger) (*QRGenerator, error) {
	if size <= 0 {
		size = defaultSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", domain.ErrArtifactWrite, dir, err)
	}
	return &QRGenerator{dir: dir, size: size, log: log.With().Str("component", "artifact").Logger()}, nil
}

// Path returns where the artifact for productID lives.
func (g *QRGenerator) Path(productID string) string {
	return filepath.Join(g.dir, fileName(productID))
}

// Exists reports whether an artifact for productID is already on disk.
func (g *QRGenerator) Exists(productID string) bool {
	fi, err := os.Stat(g.Path(productID))
	return err == nil && fi.Mode().IsRegular()
}

// Generate encodes productID and (over)writes its image. Writes go through a
// temp file and rename so readers never see a partial PNG.
func (g *QRGenerator) Generate(_ context.Context, productID string) (ports.ArtifactHandle, error) {
	if strings.TrimSpace(productID) == "" {
		return ports.ArtifactHandle{}, &domain.ValidationError{Field: "productId"}
	}

	png, err := qrcode.Encode(productID, qrcode.Highest, g.size)
	if err != nil {
		metrics.ArtifactsTotal.WithLabelValues("failed").Inc()
		return ports.ArtifactHandle{}, fmt.Errorf("%w: encode %s: %w", domain.ErrArtifactWrite, productID, err)
	}

	path := g.Path(productID)
	if err := writeAtomic(g.dir, path, png); err != nil {
		metrics.ArtifactsTotal.WithLabelValues("failed").Inc()
		return ports.ArtifactHandle{}, fmt.Errorf("%w: %w", domain.ErrArtifactWrite, err)
	}

	metrics.ArtifactsTotal.WithLabelValues("ok").Inc()
	g.log.Debug().Str("product_id", productID).Str("path", path).Msg("artifact written")
	return ports.ArtifactHandle{ProductID: productID, Path: path}, nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// encodedPrefix marks a base64url stem. '_' never appears in a plain stem,
// so plain and encoded names cannot collide.
const encodedPrefix = "_"

// fileName maps each product id to a distinct file name. Ids made only of
// ASCII letters, digits and '-' are used as-is; anything else is encoded.
func fileName(productID string) string {
	if plainStem(productID) {
		return productID + ".png"
	}
	return encodedPrefix + base64.RawURLEncoding.EncodeToString([]byte(productID)) + ".png"
}

func plainStem(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}
