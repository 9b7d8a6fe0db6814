package gpg

import (
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Signer writes armored detached signatures with a single private key and
// checks them against its verifier, which trusts the signing key unless
// replaced with TrustKeyFile.
type Signer struct {
	entity   *openpgp.Entity
	verifier *Verifier
}

// LoadSigner reads the first private key in keyPath. Encrypted keys are
// unlocked with passphrase.
func LoadSigner(keyPath string, passphrase []byte) (*Signer, error) {
	keys, err := readKeyFile(keyPath)
	if err != nil {
		return nil, err
	}

	for _, e := range keys {
		if e.PrivateKey == nil {
			continue
		}
		if e.PrivateKey.Encrypted {
			if len(passphrase) == 0 {
				return nil, fmt.Errorf("signing key %X is encrypted and no passphrase was given", e.PrimaryKey.Fingerprint)
			}
			if err := e.DecryptPrivateKeys(passphrase); err != nil {
				return nil, fmt.Errorf("failed to unlock signing key: %w", err)
			}
		}
		return newSigner(e), nil
	}
	return nil, fmt.Errorf("no private key found in %s", keyPath)
}

// NewSigner wraps an entity that carries a decrypted private key
func NewSigner(entity *openpgp.Entity) (*Signer, error) {
	if entity == nil || entity.PrivateKey == nil {
		return nil, fmt.Errorf("entity has no private key")
	}
	if entity.PrivateKey.Encrypted {
		return nil, fmt.Errorf("private key is encrypted")
	}
	return newSigner(entity), nil
}

func newSigner(entity *openpgp.Entity) *Signer {
	s := &Signer{entity: entity}
	s.verifier = s.Verifier()
	return s
}

// TrustKeyFile makes VerifyFile accept only signatures from the keys in
// keyPath, e.g. the published release key. It returns the keyring size.
func (s *Signer) TrustKeyFile(keyPath string) (int, error) {
	v := NewVerifier()
	if err := v.ImportKeyFromFile(keyPath); err != nil {
		return 0, err
	}
	s.verifier = v
	return v.GetKeyringSize(), nil
}

// Fingerprint returns the signing key's fingerprint in hex
func (s *Signer) Fingerprint() string {
	return fmt.Sprintf("%X", s.entity.PrimaryKey.Fingerprint)
}

// SignFile writes path.asc and returns its location
func (s *Signer) SignFile(path string) (string, error) {
	//nolint:gosec // G304: path is a collected artifact
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	//nolint:errcheck // read-only
	defer in.Close()

	sigPath := path + ".asc"
	//nolint:gosec // G304: signature sits next to the artifact
	out, err := os.Create(sigPath)
	if err != nil {
		return "", fmt.Errorf("failed to create signature file: %w", err)
	}

	err = openpgp.ArmoredDetachSign(out, s.entity, in, nil)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(sigPath)
		return "", fmt.Errorf("failed to sign %s: %w", path, err)
	}
	return sigPath, nil
}

// VerifyFile checks the detached signature at sigPath against path
func (s *Signer) VerifyFile(path, sigPath string) error {
	return s.verifier.VerifyFile(path, sigPath)
}

// Verifier returns a verifier trusting this signer's key
func (s *Signer) Verifier() *Verifier {
	v := NewVerifier()
	v.AddKeys(openpgp.EntityList{s.entity})
	return v
}
