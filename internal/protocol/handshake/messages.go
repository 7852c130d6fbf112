package handshake

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"

	"github.com/fxamacker/cbor/v2"

	"sibank/internal/domain"
	"sibank/internal/protocol/channel"
	"sibank/internal/protocol/kex"
)

// Version is the handshake protocol version.
const Version = 1

// ClientHello opens the handshake.
type ClientHello struct {
	Version uint8         `cbor:"version"`
	Suite   channel.Suite `cbor:"suite"`
	Public  kex.PublicKey `cbor:"public"`
}

// ServerHello answers ClientHello. Signature covers the transcript.
type ServerHello struct {
	Public    kex.PublicKey `cbor:"public"`
	Signature []byte        `cbor:"signature"`
}

var transcriptLabel = []byte("sibank handshake v1")

// transcript hashes everything both sides agreed on: the certified key, the
// client offer and the server's ephemeral key.
func transcript(cert domain.Certificate, hello ClientHello, server kex.PublicKey) ([]byte, error) {
	helloBytes, err := cbor.Marshal(hello)
	if err != nil {
		return nil, fmt.Errorf("handshake: encode hello: %w", err)
	}
	serverBytes, err := cbor.Marshal(server)
	if err != nil {
		return nil, fmt.Errorf("handshake: encode server key: %w", err)
	}
	h := sha256.New()
	h.Write(transcriptLabel)
	writeField(h, cert.Content)
	writeField(h, cert.PublicKey)
	writeField(h, helloBytes)
	writeField(h, serverBytes)
	return h.Sum(nil), nil
}

func writeField(h hash.Hash, b []byte) {
	h.Write(binary.BigEndian.AppendUint32(nil, uint32(len(b))))
	h.Write(b)
}
