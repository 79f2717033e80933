// Package rpc defines the Connect services of the Nekolators API: message
// types, procedure names, handler and client constructors.
//
// Messages are plain Go structs carried with a JSON codec, so any Connect
// client speaking the JSON content type ("application/json") can call them.
package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// Codec is a connect.Codec for plain Go structs using encoding/json.
type Codec struct{}

var _ connect.Codec = Codec{}

// Name implements connect.Codec. It replaces Connect's default JSON codec.
func (Codec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) { return json.Marshal(msg) }

// Unmarshal implements connect.Codec.
func (Codec) Unmarshal(data []byte, msg any) error { return json.Unmarshal(data, msg) }

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
}
