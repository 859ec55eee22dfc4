package sshsrv

import (
	"crypto/ed25519"
	"encoding/pem"
	"errors"
	"os"

	"github.com/mikesmitty/edkey"
	gossh "golang.org/x/crypto/ssh"
)

// loadHostKey returns the persisted host key PEM, generating one on first
// use.
func loadHostKey(path string) ([]byte, error) {
	pemData, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		pemData, err = generateHostKey(path)
	}
	if err != nil {
		return nil, err
	}

	// validate before handing it to the server
	_, err = gossh.ParsePrivateKey(pemData)
	if err != nil {
		return nil, err
	}

	return pemData, nil
}

func generateHostKey(path string) ([]byte, error) {
	_, sk, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}

	pemKey := &pem.Block{
		Type:  "OPENSSH PRIVATE KEY",
		Bytes: edkey.MarshalED25519PrivateKey(sk),
	}
	pemData := pem.EncodeToMemory(pemKey)

	err = os.WriteFile(path, pemData, 0600)
	if err != nil {
		return nil, err
	}

	return pemData, nil
}
