package types

// EncryptedFrame is the unit of encrypted transport. Params carries the
// non-secret cipher parameters (suite, nonce, sequence) needed to decrypt.
type EncryptedFrame struct {
	Ciphertext []byte `cbor:"1,keyasint"`
	Params     []byte `cbor:"2,keyasint"`
}
