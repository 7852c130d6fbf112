package types

// ServerIdentity is the long-term signing material of a server together with
// the identity string its certificate binds.
type ServerIdentity struct {
	Identity string         `json:"identity"`
	EdPub    Ed25519Public  `json:"edpub"`
	EdPriv   Ed25519Private `json:"edpriv"`
}

// Certificate binds a long-term public key to an identity payload. It is
// created once at server startup and never mutated.
type Certificate struct {
	Content   []byte `cbor:"content" json:"content"`
	Signature []byte `cbor:"signature" json:"signature"`
	PublicKey []byte `cbor:"public_key" json:"public_key"`
}
