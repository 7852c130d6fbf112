package kex_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"sibank/internal/domain"
	"sibank/internal/protocol/kex"
)

func agree(t *testing.T, g kex.Group) {
	t.Helper()
	client, err := kex.Generate(g)
	require.NoError(t, err)

	server, err := kex.GenerateFor(client.Public())
	require.NoError(t, err)
	require.Equal(t, g, server.Group())

	cs, err := client.Agree(server.Public())
	require.NoError(t, err)
	ss, err := server.Agree(client.Public())
	require.NoError(t, err)
	require.Equal(t, cs, ss)
	require.NotEmpty(t, cs)
}

func TestAgreementX25519(t *testing.T) { agree(t, kex.X25519) }

func TestAgreementMODP2048(t *testing.T) { agree(t, kex.MODP2048) }

func TestFreshKeysPerGeneration(t *testing.T) {
	a, err := kex.Generate(kex.X25519)
	require.NoError(t, err)
	b, err := kex.Generate(kex.X25519)
	require.NoError(t, err)
	require.NotEqual(t, a.Public().Key, b.Public().Key)
}

func TestRejectsMalformedPeerKeys(t *testing.T) {
	p, _ := new(big.Int).SetString("FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1"+
		"29024E088A67CC74020BBEA63B139B22514A08798E3404DD"+
		"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245"+
		"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED"+
		"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3D"+
		"C2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F"+
		"83655D23DCA3AD961C62F356208552BB9ED529077096966D"+
		"670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B"+
		"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9"+
		"DE2BCBF6955817183995497CEA956AE515D2261898FA0510"+
		"15728E5A8AACAA68FFFFFFFFFFFFFFFF", 16)
	pMinus1 := new(big.Int).Sub(p, big.NewInt(1)).FillBytes(make([]byte, 256))
	one := big.NewInt(1).FillBytes(make([]byte, 256))

	cases := map[string]kex.PublicKey{
		"unknown group":   {Group: "ffdhe9999", Key: make([]byte, 32)},
		"short x25519":    {Group: kex.X25519, Key: make([]byte, 31)},
		"short modp":      {Group: kex.MODP2048, Key: make([]byte, 32)},
		"modp one":        {Group: kex.MODP2048, Key: one},
		"modp p-1":        {Group: kex.MODP2048, Key: pMinus1},
		"modp all zeroes": {Group: kex.MODP2048, Key: make([]byte, 256)},
	}
	for name, pk := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := kex.GenerateFor(pk)
			require.ErrorIs(t, err, domain.ErrHandshake)
		})
	}
}

func TestRejectsLowOrderX25519(t *testing.T) {
	kp, err := kex.Generate(kex.X25519)
	require.NoError(t, err)
	_, err = kp.Agree(kex.PublicKey{Group: kex.X25519, Key: make([]byte, 32)})
	require.ErrorIs(t, err, domain.ErrHandshake)
}

func TestGroupMismatch(t *testing.T) {
	a, err := kex.Generate(kex.X25519)
	require.NoError(t, err)
	b, err := kex.Generate(kex.MODP2048)
	require.NoError(t, err)
	_, err = a.Agree(b.Public())
	require.ErrorIs(t, err, domain.ErrHandshake)
}

func TestWipe(t *testing.T) {
	a, err := kex.Generate(kex.X25519)
	require.NoError(t, err)
	b, err := kex.Generate(kex.X25519)
	require.NoError(t, err)
	a.Wipe()
	_, err = a.Agree(b.Public())
	require.ErrorIs(t, err, domain.ErrHandshake)
}

func TestParseGroup(t *testing.T) {
	g, err := kex.ParseGroup("")
	require.NoError(t, err)
	require.Equal(t, kex.Default, g)
	g, err = kex.ParseGroup("modp2048")
	require.NoError(t, err)
	require.Equal(t, kex.MODP2048, g)
	_, err = kex.ParseGroup("rsa")
	require.Error(t, err)
}
