package channel

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/hkdf"

	"sibank/internal/domain"
	"sibank/internal/protocol/command"
	"sibank/internal/util/memzero"
)

// Role is the side of the session a codec seals for.
type Role uint8

const (
	RoleClient Role = 1
	RoleServer Role = 2
)

func (r Role) peer() Role {
	if r == RoleClient {
		return RoleServer
	}
	return RoleClient
}

type params struct {
	Suite Suite  `cbor:"1,keyasint"`
	Nonce []byte `cbor:"2,keyasint"`
	Seq   uint64 `cbor:"3,keyasint"`
}

var frameAD = []byte("sibank frame v1")

// Codec seals and opens frames for one side of one session. It is safe for
// concurrent use, but frames must be opened in the order they were sealed.
type Codec struct {
	mu      sync.Mutex
	suite   Suite
	role    Role
	key     []byte
	aead    cipher.AEAD
	sendSeq uint64
	recvSeq uint64
	closed  bool
}

// New derives the session key from secret and transcript. The caller keeps
// ownership of secret and should wipe it afterwards.
func New(suite Suite, role Role, secret, transcript []byte) (*Codec, error) {
	if role != RoleClient && role != RoleServer {
		return nil, fmt.Errorf("channel: invalid role %d", role)
	}
	if len(secret) == 0 {
		return nil, errors.New("channel: empty secret")
	}
	n, err := suite.keySize()
	if err != nil {
		return nil, err
	}
	key := make([]byte, n)
	r := hkdf.New(sha256.New, secret, transcript, []byte("sibank session key|"+string(suite)))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("channel: derive key: %w", err)
	}
	aead, err := suite.aead(key)
	if err != nil {
		memzero.Zero(key)
		return nil, err
	}
	return &Codec{suite: suite, role: role, key: key, aead: aead}, nil
}

// Suite returns the negotiated suite.
func (c *Codec) Suite() Suite { return c.suite }

// Seal encrypts plaintext under a fresh nonce.
func (c *Codec) Seal(plaintext []byte) (domain.EncryptedFrame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.EncryptedFrame{}, domain.ErrSessionClosed
	}

	p := params{Suite: c.suite, Nonce: make([]byte, c.aead.NonceSize()), Seq: c.sendSeq}
	if _, err := rand.Read(p.Nonce); err != nil {
		return domain.EncryptedFrame{}, fmt.Errorf("channel: nonce: %w", err)
	}
	rawParams, err := cbor.Marshal(p)
	if err != nil {
		return domain.EncryptedFrame{}, fmt.Errorf("channel: encode params: %w", err)
	}
	ct := c.aead.Seal(nil, p.Nonce, plaintext, additionalData(c.role, p.Seq))
	c.sendSeq++
	return domain.EncryptedFrame{Ciphertext: ct, Params: rawParams}, nil
}

// Open authenticates and decrypts a frame sealed by the peer. On failure the
// codec is closed.
func (c *Codec) Open(frame domain.EncryptedFrame) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrSessionClosed
	}
	pt, err := c.open(frame)
	if err != nil {
		c.closeLocked()
		return nil, err
	}
	c.recvSeq++
	return pt, nil
}

func (c *Codec) open(frame domain.EncryptedFrame) ([]byte, error) {
	var p params
	if err := cbor.Unmarshal(frame.Params, &p); err != nil {
		return nil, fmt.Errorf("%w: params: %v", domain.ErrDecryption, err)
	}
	if p.Suite != c.suite {
		return nil, fmt.Errorf("%w: suite %q, session uses %q", domain.ErrDecryption, p.Suite, c.suite)
	}
	if len(p.Nonce) != c.aead.NonceSize() {
		return nil, fmt.Errorf("%w: nonce is %d bytes", domain.ErrDecryption, len(p.Nonce))
	}
	if p.Seq != c.recvSeq {
		return nil, fmt.Errorf("%w: sequence %d, expected %d", domain.ErrDecryption, p.Seq, c.recvSeq)
	}
	pt, err := c.aead.Open(nil, p.Nonce, frame.Ciphertext, additionalData(c.role.peer(), p.Seq))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	return pt, nil
}

// EncodeRequest serializes and seals a request.
func (c *Codec) EncodeRequest(req domain.Request) (domain.EncryptedFrame, error) {
	b, err := command.MarshalRequest(req)
	if err != nil {
		return domain.EncryptedFrame{}, err
	}
	defer memzero.Zero(b)
	return c.Seal(b)
}

// DecodeRequest opens and parses a request.
func (c *Codec) DecodeRequest(frame domain.EncryptedFrame) (domain.Request, error) {
	b, err := c.Open(frame)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(b)
	req, err := command.UnmarshalRequest(b)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	return req, nil
}

// EncodeResponse serializes and seals a response.
func (c *Codec) EncodeResponse(resp domain.Response) (domain.EncryptedFrame, error) {
	b, err := command.MarshalResponse(resp)
	if err != nil {
		return domain.EncryptedFrame{}, err
	}
	defer memzero.Zero(b)
	return c.Seal(b)
}

// DecodeResponse opens and parses a response.
func (c *Codec) DecodeResponse(frame domain.EncryptedFrame) (domain.Response, error) {
	b, err := c.Open(frame)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(b)
	resp, err := command.UnmarshalResponse(b)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	return resp, nil
}

// Close wipes the key. It is idempotent.
func (c *Codec) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// Closed reports whether the codec has been torn down.
func (c *Codec) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Codec) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	memzero.Zero(c.key)
	c.key = nil
	c.aead = nil
}

func additionalData(sender Role, seq uint64) []byte {
	ad := make([]byte, len(frameAD)+1+8)
	n := copy(ad, frameAD)
	ad[n] = byte(sender)
	binary.BigEndian.PutUint64(ad[n+1:], seq)
	return ad
}
