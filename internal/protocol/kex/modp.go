package kex

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"sibank/internal/domain"
)

// RFC 3526 section 3, 2048-bit MODP group.
const modp2048Hex = "FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1" +
	"29024E088A67CC74020BBEA63B139B22514A08798E3404DD" +
	"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245" +
	"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3D" +
	"C2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F" +
	"83655D23DCA3AD961C62F356208552BB9ED529077096966D" +
	"670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B" +
	"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9" +
	"DE2BCBF6955817183995497CEA956AE515D2261898FA0510" +
	"15728E5A8AACAA68FFFFFFFFFFFFFFFF"

const modpSize = 256

var (
	modpP    *big.Int
	modpG    = big.NewInt(2)
	modpPm2  *big.Int
	bigTwo   = big.NewInt(2)
	bigThree = big.NewInt(3)
)

func init() {
	var ok bool
	modpP, ok = new(big.Int).SetString(modp2048Hex, 16)
	if !ok {
		panic("kex: bad modp2048 prime")
	}
	modpPm2 = new(big.Int).Sub(modpP, bigTwo)
}

type modpScheme struct{}

func (modpScheme) generate() ([]byte, []byte, error) {
	// x uniform in [2, p-2].
	x, err := rand.Int(rand.Reader, new(big.Int).Sub(modpP, bigThree))
	if err != nil {
		return nil, nil, err
	}
	x.Add(x, bigTwo)
	y := new(big.Int).Exp(modpG, x, modpP)
	return x.FillBytes(make([]byte, modpSize)), y.FillBytes(make([]byte, modpSize)), nil
}

func (modpScheme) validate(pub []byte) error {
	if len(pub) != modpSize {
		return fmt.Errorf("%w: modp2048 key is %d bytes", domain.ErrHandshake, len(pub))
	}
	y := new(big.Int).SetBytes(pub)
	if y.Cmp(bigTwo) < 0 || y.Cmp(modpPm2) > 0 {
		return fmt.Errorf("%w: modp2048 key out of range", domain.ErrHandshake)
	}
	return nil
}

func (modpScheme) agree(priv, peer []byte) ([]byte, error) {
	x := new(big.Int).SetBytes(priv)
	y := new(big.Int).SetBytes(peer)
	z := new(big.Int).Exp(y, x, modpP)
	if z.Cmp(bigTwo) < 0 {
		return nil, fmt.Errorf("%w: degenerate modp2048 secret", domain.ErrHandshake)
	}
	return z.FillBytes(make([]byte, modpSize)), nil
}
