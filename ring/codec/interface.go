package codec

import (
	"errors"

	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
)

// ErrMalformedMessage is returned when a wire record cannot be parsed.
// Callers are expected to log the record and continue serving.
var ErrMalformedMessage = errors.New("malformed message")

// ICodec is the interface for all Message codecs
type ICodec interface {
	// Encode serializes a Message into its wire form
	// It returns the encoded byte slice and an error if any
	Encode(msg *common.Message) ([]byte, error)
	// Decode parses a wire record into a Message
	// It takes a byte slice and a pointer to a Message as parameters
	// It returns an error wrapping ErrMalformedMessage if the record is invalid
	Decode(b []byte, msg *common.Message) error
}
