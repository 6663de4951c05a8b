package client

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// readBody reads resp.Body and undoes its Content-Encoding. The transport
// does not decompress on its own because the browser header set names the
// encodings explicitly.
func readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return decodeBody(resp.Header.Get("Content-Encoding"), raw)
}

// decodeBody decompresses raw according to a Content-Encoding value.
// Stacked encodings ("gzip, br") are undone last-applied first.
func decodeBody(contentEncoding string, raw []byte) ([]byte, error) {
	encodings := strings.Split(contentEncoding, ",")
	body := raw
	for i := len(encodings) - 1; i >= 0; i-- {
		var err error
		body, err = decodeOne(strings.ToLower(strings.TrimSpace(encodings[i])), body)
		if err != nil {
			return nil, err
		}
	}
	return body, nil
}

func decodeOne(encoding string, data []byte) ([]byte, error) {
	switch encoding {
	case "", "identity":
		return data, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		defer func() { _ = zr.Close() }()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("reading gzip content: %w", err)
		}
		return out, nil
	case "deflate":
		// HTTP deflate is zlib-wrapped, but some servers send raw DEFLATE.
		if zr, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
			defer func() { _ = zr.Close() }()
			out, err := io.ReadAll(zr)
			if err != nil {
				return nil, fmt.Errorf("reading deflate content: %w", err)
			}
			return out, nil
		}
		fr := flate.NewReader(bytes.NewReader(data))
		defer func() { _ = fr.Close() }()
		out, err := io.ReadAll(fr)
		if err != nil {
			return nil, fmt.Errorf("reading deflate content: %w", err)
		}
		return out, nil
	case "br":
		out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("reading brotli content: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}
