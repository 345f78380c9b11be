package crypto

import (
	"encoding/json"
	"fmt"
)

// Seal encodes v as JSON and encrypts it.
func Seal(svc Service, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return svc.Encrypt(data)
}

// Open decrypts payload and decodes the JSON into a T.
func Open[T any](svc Service, payload string) (T, error) {
	var v T
	data, err := svc.Decrypt(payload)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode payload: %w", err)
	}
	return v, nil
}
