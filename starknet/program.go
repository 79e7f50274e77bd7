package starknet

import (
	"encoding/json"
	"errors"

	"github.com/NethermindEth/classconv/utils"
)

// CanonicalProgram re-sorts the keys of every object in raw, see
// utils.CanonicalJSON.
func CanonicalProgram(raw json.RawMessage) (json.RawMessage, error) {
	return canonicalJSON("program", raw)
}

func canonicalJSON(field string, raw []byte) (json.RawMessage, error) {
	canonical, err := utils.CanonicalJSON(raw)
	if err != nil {
		return nil, &Error{Kind: ErrMalformedJSON, Field: field, Err: err}
	}
	return canonical, nil
}

// DecompressJSON decodes a base64(gzip(json)) string into canonical JSON.
func DecompressJSON(text, field string) (json.RawMessage, error) {
	return DecompressJSONLimit(text, field, utils.MaxDecompressedSize)
}

// DecompressJSONLimit is DecompressJSON with an explicit bound on the
// decompressed size.
func DecompressJSONLimit(text, field string, limit int64) (json.RawMessage, error) {
	decompressed, err := utils.Gzip64DecodeLimit(text, limit)
	if err != nil {
		kind := ErrDecompressionFailure
		if errors.Is(err, utils.ErrBase64) {
			kind = ErrMalformedBase64
		}
		return nil, &Error{Kind: kind, Field: field, Value: text, Err: err}
	}
	return canonicalJSON(field, decompressed)
}

// CompressJSON canonicalizes raw and encodes it as base64(gzip(json)). The
// output only depends on the JSON value, not on its formatting.
func CompressJSON(raw json.RawMessage, field string) (string, error) {
	canonical, err := canonicalJSON(field, raw)
	if err != nil {
		return "", err
	}
	compressed, err := utils.Gzip64Encode(canonical)
	if err != nil {
		return "", &Error{Kind: ErrMalformedJSON, Field: field, Err: err}
	}
	return compressed, nil
}
