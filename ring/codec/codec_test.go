package codec

import (
	"reflect"
	"strings"
	"testing"

	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
)

// testNetwork returns a small membership view used as piggyback payload
func testNetwork() []common.Peer {
	return []common.Peer{
		{ID: 0, Address: "127.0.0.1", Status: common.StatusCoordinator, IsDown: false, LastUpdated: 1700000000},
		{ID: 1, Address: "127.0.0.2", Status: common.StatusNode, IsDown: false, LastUpdated: 1700000100},
		{ID: 2, Address: "127.0.0.3", Status: common.StatusNode, IsDown: true, LastUpdated: 1700000050},
	}
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Header-only messages without network info
		{Source: "127.0.0.1", Destination: "127.0.0.2", Type: common.MsgTPing, SourceID: 0},
		{Source: "127.0.0.9", Destination: "127.0.0.1", Type: common.MsgTJoinRequest, SourceID: -1},

		// Write path
		{
			Source: "127.0.0.1", Destination: "127.0.0.2",
			Type: common.MsgTWriteRequest, SourceID: 0,
			Network: testNetwork(),
			Key:     "test-key", Value: "test-value",
		},
		{
			Source: "127.0.0.2", Destination: "127.0.0.1",
			Type: common.MsgTWriteAcknowledgement, SourceID: 1,
			Key: "test-key",
		},

		// Read path
		{
			Source: "127.0.0.1", Destination: "127.0.0.2",
			Type: common.MsgTKeyRequest, SourceID: 0,
			Key: "test-key",
		},
		{
			Source: "127.0.0.2", Destination: "127.0.0.1",
			Type: common.MsgTKeyAcknowledgement, SourceID: 1,
			Key: "test-key", Timestamp: 1700000042,
		},
		// Absence signal: empty key, zero timestamp
		{
			Source: "127.0.0.3", Destination: "127.0.0.1",
			Type: common.MsgTKeyAcknowledgement, SourceID: 2,
			Key: "", Timestamp: 0,
		},
		{
			Source: "127.0.0.2", Destination: "127.0.0.1",
			Type: common.MsgTValueResponse, SourceID: 1,
			Key: "test-key", Value: "test-value", Timestamp: 1700000042,
		},

		// Client operations
		{
			Source: "127.0.0.10", Destination: "127.0.0.1",
			Type: common.MsgTClientReadRequest, SourceID: -1,
			Key: "a",
		},
		{
			Source: "127.0.0.1", Destination: "127.0.0.10",
			Type: common.MsgTClientReadResponse, SourceID: 0,
			Key: "a", Value: "hello", Timestamp: 1700000001,
		},
		{
			Source: "127.0.0.10", Destination: "127.0.0.1",
			Type: common.MsgTClientWriteRequest, SourceID: -1,
			Key: "a", Value: "value:with:colons",
		},
		{
			Source: "127.0.0.1", Destination: "127.0.0.10",
			Type: common.MsgTClientWriteResponse, SourceID: 0,
			Key: "a", Value: "value:with:colons",
		},
		{
			Source: "127.0.0.10", Destination: "127.0.0.1",
			Type: common.MsgTClientDeleteRequest, SourceID: -1,
			Key: "a",
		},

		// Delete path
		{
			Source: "127.0.0.1", Destination: "127.0.0.2",
			Type: common.MsgTDeleteRequest, SourceID: 0,
			Network: testNetwork(),
			Key:     "test-key",
		},
		{
			Source: "127.0.0.2", Destination: "127.0.0.1",
			Type: common.MsgTDeleteAcknowledgement, SourceID: 1,
			Key: "test-key",
		},

		// Membership
		{
			Source: "127.0.0.1", Destination: "127.0.0.9",
			Type: common.MsgTJoinResponse, SourceID: 0,
			Network: testNetwork(),
			NewID:   9,
		},
		{
			Source: "127.0.0.1", Destination: "127.0.0.2",
			Type: common.MsgTJoinIntroduction, SourceID: 0,
			Network: testNetwork(),
			NewID:   9, HopCount: 2,
		},

		// Errors
		{
			Source: "127.0.0.1", Destination: "127.0.0.10",
			Type: common.MsgTFailureIndication, SourceID: 0,
			FailureReason: "Key does not exist",
		},
	}
}

// TestCodecRoundTrip tests that messages survive encode/decode unchanged
func TestCodecRoundTrip(t *testing.T) {
	c := NewTextCodec()
	messages := testMessages()

	for i, msg := range messages {
		// Encode
		data, err := c.Encode(&msg)
		if err != nil {
			t.Errorf("Failed to encode message %d (%s): %v", i, msg.Type, err)
			continue
		}

		// Decode
		var result common.Message
		if err := c.Decode(data, &result); err != nil {
			t.Errorf("Failed to decode message %d (%s): %v", i, msg.Type, err)
			continue
		}

		// Compare
		if !reflect.DeepEqual(msg, result) {
			t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
				i, msg, result)
		}
	}
}

// TestCodecEmptyNetwork distinguishes "no network info" from "zero peers"
func TestCodecEmptyNetwork(t *testing.T) {
	c := NewTextCodec()

	withEmpty := common.Message{
		Source: "a", Destination: "b",
		Type: common.MsgTPing, SourceID: 1,
		Network: []common.Peer{},
	}

	data, err := c.Encode(&withEmpty)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if !strings.Contains(string(data), "NODE-COUNT:0") {
		t.Errorf("Expected NODE-COUNT:0 on the wire, got:\n%s", data)
	}

	var result common.Message
	if err := c.Decode(data, &result); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if result.Network == nil || len(result.Network) != 0 {
		t.Errorf("Expected empty non-nil network, got %v", result.Network)
	}

	withoutInfo := common.Message{
		Source: "a", Destination: "b",
		Type: common.MsgTPing, SourceID: 1,
	}
	data, err = c.Encode(&withoutInfo)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if !strings.Contains(string(data), "NODE-COUNT:-1") {
		t.Errorf("Expected NODE-COUNT:-1 on the wire, got:\n%s", data)
	}

	result = common.Message{}
	if err := c.Decode(data, &result); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if result.Network != nil {
		t.Errorf("Expected nil network, got %v", result.Network)
	}
}

// TestCodecRejectsEmptySentinel verifies the internal sentinel never hits the wire
func TestCodecRejectsEmptySentinel(t *testing.T) {
	c := NewTextCodec()
	if _, err := c.Encode(common.NewEmpty()); err == nil {
		t.Error("Expected error encoding the Empty sentinel, got none")
	}
}

// TestMalformedRecords tests how the codec handles corrupt or invalid records
func TestMalformedRecords(t *testing.T) {
	c := NewTextCodec()

	testCases := []struct {
		name string
		data string
	}{
		{
			name: "Empty record",
			data: "",
		},
		{
			name: "Missing TYPE header",
			data: "SOURCE:127.0.0.1\nDESTINATION:127.0.0.2\nSOURCE-ID:0\nNODE-COUNT:-1\n",
		},
		{
			name: "Unknown TYPE",
			data: "SOURCE:a\nDESTINATION:b\nTYPE:Bogus\nSOURCE-ID:0\nNODE-COUNT:-1\n",
		},
		{
			name: "Non-integer SOURCE-ID",
			data: "SOURCE:a\nDESTINATION:b\nTYPE:Ping\nSOURCE-ID:zero\nNODE-COUNT:-1\n",
		},
		{
			name: "Non-integer NODE-COUNT",
			data: "SOURCE:a\nDESTINATION:b\nTYPE:Ping\nSOURCE-ID:0\nNODE-COUNT:many\n",
		},
		{
			name: "Line without separator",
			data: "SOURCE 127.0.0.1\nDESTINATION:b\nTYPE:Ping\nSOURCE-ID:0\nNODE-COUNT:-1\n",
		},
		{
			name: "Truncated peer block",
			data: "SOURCE:a\nDESTINATION:b\nTYPE:Ping\nSOURCE-ID:0\nNODE-COUNT:1\nID:1\nSTATUS:Node\n",
		},
		{
			name: "Invalid peer status",
			data: "SOURCE:a\nDESTINATION:b\nTYPE:Ping\nSOURCE-ID:0\nNODE-COUNT:1\nID:1\nSTATUS:Replica\nADDRESS:c\nIS-DOWN:0\nLAST-UPDATED:1\n",
		},
		{
			name: "Missing type-specific field",
			data: "SOURCE:a\nDESTINATION:b\nTYPE:WriteRequest\nSOURCE-ID:0\nNODE-COUNT:-1\nKEY:k\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := c.Decode([]byte(tc.data), &msg)
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if !strings.Contains(err.Error(), ErrMalformedMessage.Error()) {
				t.Errorf("Expected a malformed message error, got: %v", err)
			}
		})
	}
}

// TestDecodeTrimsWhitespace verifies lenient whitespace handling around fields
func TestDecodeTrimsWhitespace(t *testing.T) {
	c := NewTextCodec()

	data := "SOURCE : 127.0.0.1 \nDESTINATION: 127.0.0.2\nTYPE: KeyRequest\nSOURCE-ID: 0\nNODE-COUNT: -1\nKEY:  spaced  \n"
	var msg common.Message
	if err := c.Decode([]byte(data), &msg); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	if msg.Source != "127.0.0.1" {
		t.Errorf("Expected trimmed source, got %q", msg.Source)
	}
	if msg.Key != "spaced" {
		t.Errorf("Expected trimmed key, got %q", msg.Key)
	}
}
