// Package packer encodes and decodes task payloads for storage.
package packer

import "github.com/vmihailenco/msgpack/v5"

// EncodeMessage marshals v with msgpack.
func EncodeMessage(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// DecodeMessage unmarshals msgpack-encoded data into v.
func DecodeMessage(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
