package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
)

// Fixed header field names. Every wire record starts with these five lines,
// in this order, followed by NODE-COUNT peer blocks and the type-specific
// fields of the message.
const (
	fieldSource      = "SOURCE"
	fieldDestination = "DESTINATION"
	fieldType        = "TYPE"
	fieldSourceID    = "SOURCE-ID"
	fieldNodeCount   = "NODE-COUNT"

	fieldPeerID          = "ID"
	fieldPeerStatus      = "STATUS"
	fieldPeerAddress     = "ADDRESS"
	fieldPeerIsDown      = "IS-DOWN"
	fieldPeerLastUpdated = "LAST-UPDATED"

	fieldKey       = "KEY"
	fieldValue     = "VALUE"
	fieldTimestamp = "TIMESTAMP"
	fieldNewID     = "NEW-ID"
	fieldHopCount  = "HOP-COUNT"
	fieldFailed    = "FAILED"
)

// NewTextCodec creates a codec for the newline-delimited FIELD:VALUE text
// format. Each field occupies one line; the value is everything after the
// first colon, trimmed of surrounding whitespace.
func NewTextCodec() ICodec {
	return &textCodecImpl{}
}

// textCodecImpl implements ICodec using the line-based text format
type textCodecImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (c *textCodecImpl) Encode(msg *common.Message) ([]byte, error) {
	if msg.Type == common.MsgTEmpty {
		return nil, fmt.Errorf("cannot encode the Empty sentinel")
	}

	var sb strings.Builder

	writeField := func(field, value string) {
		sb.WriteString(field)
		sb.WriteString(":")
		sb.WriteString(value)
		sb.WriteString("\n")
	}

	// Fixed header
	writeField(fieldSource, msg.Source)
	writeField(fieldDestination, msg.Destination)
	writeField(fieldType, msg.Type.String())
	writeField(fieldSourceID, strconv.Itoa(msg.SourceID))

	// Piggybacked network block
	if msg.Network == nil {
		writeField(fieldNodeCount, "-1")
	} else {
		writeField(fieldNodeCount, strconv.Itoa(len(msg.Network)))
		for _, p := range msg.Network {
			writeField(fieldPeerID, strconv.Itoa(p.ID))
			writeField(fieldPeerStatus, p.Status.String())
			writeField(fieldPeerAddress, p.Address)
			if p.IsDown {
				writeField(fieldPeerIsDown, "1")
			} else {
				writeField(fieldPeerIsDown, "0")
			}
			writeField(fieldPeerLastUpdated, strconv.FormatInt(p.LastUpdated, 10))
		}
	}

	// Type-specific fields
	switch msg.Type {
	case common.MsgTClientReadRequest, common.MsgTClientDeleteRequest,
		common.MsgTKeyRequest, common.MsgTKeyQuery,
		common.MsgTWriteAcknowledgement,
		common.MsgTDeleteRequest, common.MsgTDeleteAcknowledgement:
		writeField(fieldKey, msg.Key)

	case common.MsgTClientWriteRequest, common.MsgTClientWriteResponse,
		common.MsgTWriteRequest:
		writeField(fieldKey, msg.Key)
		writeField(fieldValue, msg.Value)

	case common.MsgTClientReadResponse, common.MsgTValueResponse:
		writeField(fieldKey, msg.Key)
		writeField(fieldValue, msg.Value)
		writeField(fieldTimestamp, strconv.FormatInt(msg.Timestamp, 10))

	case common.MsgTKeyAcknowledgement:
		writeField(fieldKey, msg.Key)
		writeField(fieldTimestamp, strconv.FormatInt(msg.Timestamp, 10))

	case common.MsgTJoinResponse:
		writeField(fieldNewID, strconv.Itoa(msg.NewID))

	case common.MsgTJoinIntroduction:
		writeField(fieldNewID, strconv.Itoa(msg.NewID))
		writeField(fieldHopCount, strconv.Itoa(msg.HopCount))

	case common.MsgTFailureIndication:
		writeField(fieldFailed, msg.FailureReason)

	case common.MsgTPing, common.MsgTJoinRequest:
		// header only
	}

	return []byte(sb.String()), nil
}

func (c *textCodecImpl) Decode(data []byte, msg *common.Message) error {
	r := newLineReader(data)

	// Fixed header
	var err error
	if msg.Source, err = r.expect(fieldSource); err != nil {
		return err
	}
	if msg.Destination, err = r.expect(fieldDestination); err != nil {
		return err
	}
	typeStr, err := r.expect(fieldType)
	if err != nil {
		return err
	}
	if msg.Type, err = common.ParseMessageType(typeStr); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.SourceID, err = r.expectInt(fieldSourceID); err != nil {
		return err
	}
	nodeCount, err := r.expectInt(fieldNodeCount)
	if err != nil {
		return err
	}

	// Piggybacked network block
	if nodeCount < 0 {
		msg.Network = nil
	} else {
		msg.Network = make([]common.Peer, 0, nodeCount)
		for i := 0; i < nodeCount; i++ {
			var p common.Peer
			if p.ID, err = r.expectInt(fieldPeerID); err != nil {
				return err
			}
			statusStr, err := r.expect(fieldPeerStatus)
			if err != nil {
				return err
			}
			if p.Status, err = common.ParsePeerStatus(statusStr); err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
			}
			if p.Address, err = r.expect(fieldPeerAddress); err != nil {
				return err
			}
			down, err := r.expectInt(fieldPeerIsDown)
			if err != nil {
				return err
			}
			p.IsDown = down != 0
			if p.LastUpdated, err = r.expectInt64(fieldPeerLastUpdated); err != nil {
				return err
			}
			msg.Network = append(msg.Network, p)
		}
	}

	// Type-specific fields
	switch msg.Type {
	case common.MsgTClientReadRequest, common.MsgTClientDeleteRequest,
		common.MsgTKeyRequest, common.MsgTKeyQuery,
		common.MsgTWriteAcknowledgement,
		common.MsgTDeleteRequest, common.MsgTDeleteAcknowledgement:
		if msg.Key, err = r.expect(fieldKey); err != nil {
			return err
		}

	case common.MsgTClientWriteRequest, common.MsgTClientWriteResponse,
		common.MsgTWriteRequest:
		if msg.Key, err = r.expect(fieldKey); err != nil {
			return err
		}
		if msg.Value, err = r.expect(fieldValue); err != nil {
			return err
		}

	case common.MsgTClientReadResponse, common.MsgTValueResponse:
		if msg.Key, err = r.expect(fieldKey); err != nil {
			return err
		}
		if msg.Value, err = r.expect(fieldValue); err != nil {
			return err
		}
		if msg.Timestamp, err = r.expectInt64(fieldTimestamp); err != nil {
			return err
		}

	case common.MsgTKeyAcknowledgement:
		if msg.Key, err = r.expect(fieldKey); err != nil {
			return err
		}
		if msg.Timestamp, err = r.expectInt64(fieldTimestamp); err != nil {
			return err
		}

	case common.MsgTJoinResponse:
		if msg.NewID, err = r.expectInt(fieldNewID); err != nil {
			return err
		}

	case common.MsgTJoinIntroduction:
		if msg.NewID, err = r.expectInt(fieldNewID); err != nil {
			return err
		}
		if msg.HopCount, err = r.expectInt(fieldHopCount); err != nil {
			return err
		}

	case common.MsgTFailureIndication:
		if msg.FailureReason, err = r.expect(fieldFailed); err != nil {
			return err
		}

	case common.MsgTPing, common.MsgTJoinRequest:
		// header only
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// lineReader walks the record line by line, splitting each line on the
// first colon and trimming whitespace around field and value.
type lineReader struct {
	lines []string
	pos   int
}

func newLineReader(data []byte) *lineReader {
	raw := strings.Split(string(data), "\n")

	// Drop trailing blank lines so a final newline does not count as a field.
	for len(raw) > 0 && strings.TrimSpace(raw[len(raw)-1]) == "" {
		raw = raw[:len(raw)-1]
	}

	return &lineReader{lines: raw}
}

// expect consumes the next line and returns its value. The field name must
// match exactly; anything else makes the whole record malformed.
func (r *lineReader) expect(field string) (string, error) {
	if r.pos >= len(r.lines) {
		return "", fmt.Errorf("%w: missing %s line", ErrMalformedMessage, field)
	}

	line := r.lines[r.pos]
	r.pos++

	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", fmt.Errorf("%w: line %q has no separator", ErrMalformedMessage, line)
	}

	name := strings.TrimSpace(line[:idx])
	if name != field {
		return "", fmt.Errorf("%w: expected %s, got %s", ErrMalformedMessage, field, name)
	}

	return strings.TrimSpace(line[idx+1:]), nil
}

func (r *lineReader) expectInt(field string) (int, error) {
	v, err := r.expect(field)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer: %q", ErrMalformedMessage, field, v)
	}
	return n, nil
}

func (r *lineReader) expectInt64(field string) (int64, error) {
	v, err := r.expect(field)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer: %q", ErrMalformedMessage, field, v)
	}
	return n, nil
}
