package utils

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// MaxDecompressedSize bounds Gzip64Decode output to guard against decompression bombs.
const MaxDecompressedSize = 64 << 20

var (
	ErrBase64             = errors.New("invalid base64")
	ErrGzip               = errors.New("invalid gzip stream")
	ErrDecompressedTooBig = errors.New("decompressed data exceeds limit")
)

func Gzip64Encode(data []byte) (string, error) {
	var compressedBuffer bytes.Buffer
	gzipWriter := gzip.NewWriter(&compressedBuffer)
	if _, err := gzipWriter.Write(data); err != nil {
		return "", err
	}
	if err := gzipWriter.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(compressedBuffer.Bytes()), nil
}

func Gzip64Decode(data string) ([]byte, error) {
	return Gzip64DecodeLimit(data, MaxDecompressedSize)
}

// Gzip64DecodeLimit decodes standard base64 and decompresses the gzip stream,
// failing once more than limit bytes would be produced. Base64 failures wrap
// ErrBase64, everything gzip related wraps ErrGzip.
func Gzip64DecodeLimit(data string, limit int64) ([]byte, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBase64, err)
	}
	gzipReader, err := gzip.NewReader(bytes.NewReader(decodedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGzip, err)
	}
	decompressedBytes, err := io.ReadAll(io.LimitReader(gzipReader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGzip, err)
	}
	if int64(len(decompressedBytes)) > limit {
		return nil, fmt.Errorf("%w: %w (%d bytes)", ErrGzip, ErrDecompressedTooBig, limit)
	}
	if err = gzipReader.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGzip, err)
	}
	return decompressedBytes, nil
}
