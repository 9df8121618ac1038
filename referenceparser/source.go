// Package referenceparser loads the drug, composition and interaction reference files
// from local paths or http(s) URLs and assembles them into entities.ReferenceData.
package referenceparser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alibahaloo/PharmaTrack-sub000/logging"
	"golang.org/x/text/encoding/charmap"
)

const (
	downloadTimeout = 5 * time.Minute
	maxSourceSize   = 256 * 1024 * 1024
)

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// fetch returns the UTF-8 content of a source. BDPM exports mix UTF-8 and ISO-8859-1
// files, so anything that is not valid UTF-8 is decoded as Latin-1.
func (p *ReferenceParser) fetch(ctx context.Context, source string) (io.Reader, error) {
	var raw []byte
	var err error

	if isRemote(source) {
		raw, err = p.download(ctx, source)
	} else {
		raw, err = os.ReadFile(filepath.Clean(source))
		if err != nil {
			err = fmt.Errorf("failed to read %s: %w", source, err)
		}
	}
	if err != nil {
		return nil, err
	}

	if utf8.Valid(raw) {
		return bytes.NewReader(raw), nil
	}

	logging.Debug("Decoding reference source as ISO-8859-1", "source", source)
	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw)), nil
}

func (p *ReferenceParser) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %s: %w", url, err)
	}

	response, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: unexpected status %s", url, response.Status)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxSourceSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body of %s: %w", url, err)
	}
	if len(body) > maxSourceSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", url, maxSourceSize)
	}

	logging.Debug("Reference source downloaded", "url", url, "bytes", len(body))
	return body, nil
}
