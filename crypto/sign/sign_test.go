package sign

import (
	"errors"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	key, err := GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}

	message := []byte("test message")
	sig := key.Sign(message)

	pk, ok := key.Public()
	if !ok {
		t.Errorf("bad PK?")
	}

	if !pk.Verify(message, sig) {
		t.Errorf("valid signature rejected")
	}

	wrongMessage := []byte("wrong message")
	if pk.Verify(wrongMessage, sig) {
		t.Errorf("signature of different message accepted")
	}
}

type testErrorRandReader struct{}

func (er testErrorRandReader) Read([]byte) (int, error) {
	return 0, errors.New("Not enough entropy!")
}

func TestGenerateKeyFailure(t *testing.T) {
	if _, err := GenerateKey(testErrorRandReader{}); err == nil {
		t.Fatal("No error returned")
	}
}

func TestKeySizes(t *testing.T) {
	key, err := GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(key) != PrivateKeySize {
		t.Fatal("Unexpected private key size", len(key))
	}
	pk, _ := key.Public()
	if len(pk) != PublicKeySize {
		t.Fatal("Unexpected public key size", len(pk))
	}
	if len(key.Sign(nil)) != SignatureSize {
		t.Fatal("Unexpected signature size")
	}
}
