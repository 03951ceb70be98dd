// pkg/object/encrypt.go

package object

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"io"
	"strings"

	"AveGrid/pkg/utils"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

type rsaEncryptor struct {
	privKey *rsa.PrivateKey
	label   []byte
}

// decryptPemBlock opens a PEM body sealed with PBKDF2 + AES-GCM, the salt lives in DEK-Info.
func decryptPemBlock(block *pem.Block, passphrase string) ([]byte, error) {
	dekInfo := block.Headers["DEK-Info"]
	if !strings.HasPrefix(dekInfo, "PBES2-AES256-GCM,") {
		return nil, fmt.Errorf("unsupported encryption scheme")
	}
	salt, err := hex.DecodeString(strings.TrimPrefix(dekInfo, "PBES2-AES256-GCM,"))
	if err != nil {
		return nil, fmt.Errorf("invalid salt in DEK-Info")
	}
	key := pbkdf2.Key([]byte(passphrase), salt, 10000, 32, sha256.New)
	aesBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %v", err)
	}
	gcm, err := cipher.NewGCM(aesBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %v", err)
	}
	buf := block.Bytes
	if len(buf) < gcm.NonceSize() {
		return nil, fmt.Errorf("invalid encrypted data length")
	}
	nonce, sealed := buf[:gcm.NonceSize()], buf[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %v", err)
	}
	return plain, nil
}

func ParseRsaPrivateKeyFromPem(privPEM string, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the key")
	}

	buf := block.Bytes
	if strings.Contains(block.Headers["Proc-Type"], "ENCRYPTED") {
		if passphrase == "" {
			return nil, fmt.Errorf("passphrase is required to decrypt private key")
		}
		var err error
		if buf, err = decryptPemBlock(block, passphrase); err != nil {
			return nil, err
		}
	} else if passphrase != "" {
		logger.Warnf("passphrase is not used, because private key is not encrypted")
	}

	privKey, err := x509.ParsePKCS8PrivateKey(buf)
	if err == nil {
		if rsaKey, ok := privKey.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
		return nil, errors.New("key is not an RSA private key")
	}
	priv, err := x509.ParsePKCS1PrivateKey(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %v", err)
	}
	return priv, nil
}

func NewRSAEncryptor(privKey *rsa.PrivateKey) Encryptor {
	return &rsaEncryptor{privKey, []byte("chunks")}
}

func (e *rsaEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, &e.privKey.PublicKey, plaintext, e.label)
}

func (e *rsaEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	return rsa.DecryptOAEP(sha256.New(), rand.Reader, e.privKey, ciphertext, e.label)
}

// aesEncryptor seals every blob with a fresh AES-256-GCM key which is itself
// sealed by keyEncryptor and stored in the blob header.
type aesEncryptor struct {
	keyEncryptor Encryptor
	keyLen       int
}

func NewAESEncryptor(keyEncryptor Encryptor) Encryptor {
	return &aesEncryptor{keyEncryptor, 32}
}

func (e *aesEncryptor) gcm(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt frames the result as u16 sealed key length, u8 nonce length, sealed key,
// nonce and the sealed payload.
func (e *aesEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	key := make([]byte, e.keyLen)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	cipherKey, err := e.keyEncryptor.Encrypt(key)
	if err != nil {
		return nil, errors.Wrap(err, "seal key")
	}
	aesgcm, err := e.gcm(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	headerSize := 3 + len(cipherKey) + len(nonce)
	w := utils.NewBuffer(uint32(headerSize + len(plaintext) + aesgcm.Overhead()))
	w.Put16(uint16(len(cipherKey)))
	w.Put8(uint8(len(nonce)))
	w.Put(cipherKey)
	w.Put(nonce)
	sealed := aesgcm.Seal(w.Bytes()[headerSize:headerSize], nonce, plaintext, nil)
	return w.Bytes()[:headerSize+len(sealed)], nil
}

func (e *aesEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 3 {
		return nil, fmt.Errorf("misformed ciphertext: %d bytes", len(ciphertext))
	}
	r := utils.ReadBuffer(ciphertext)
	keyLen := int(r.Get16())
	nonceLen := int(r.Get8())
	if keyLen+nonceLen >= r.Left() {
		return nil, fmt.Errorf("misformed ciphertext: %d %d", keyLen, nonceLen)
	}
	cipherKey := r.Get(keyLen)
	nonce := r.Get(nonceLen)
	sealed := r.Get(r.Left())

	key, err := e.keyEncryptor.Decrypt(cipherKey)
	if err != nil {
		return nil, errors.Wrap(err, "decrypt key")
	}
	aesgcm, err := e.gcm(key)
	if err != nil {
		return nil, err
	}
	return aesgcm.Open(nil, nonce, sealed, nil)
}

type encrypted struct {
	ObjectStorage
	enc Encryptor
}

// NewEncrypted seals every object with enc. Reads fetch and open the whole object
// before applying the range.
func NewEncrypted(o ObjectStorage, enc Encryptor) ObjectStorage {
	return &encrypted{o, enc}
}

func (e *encrypted) String() string {
	return fmt.Sprintf("%s(encrypted)", e.ObjectStorage)
}

func (e *encrypted) Get(key string, off, limit int64) (io.ReadCloser, error) {
	r, err := e.ObjectStorage.Get(key, 0, -1)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	ciphertext, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	plain, err := e.enc.Decrypt(ciphertext)
	if err != nil {
		return nil, errors.Wrapf(err, "decrypt %s", key)
	}
	l := int64(len(plain))
	if off > l {
		return nil, io.EOF
	}
	if limit == -1 || off+limit > l {
		limit = l - off
	}
	return io.NopCloser(bytes.NewBuffer(plain[off : off+limit])), nil
}

func (e *encrypted) Put(key string, in io.Reader) error {
	plain, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	ciphertext, err := e.enc.Encrypt(plain)
	if err != nil {
		return err
	}
	return e.ObjectStorage.Put(key, bytes.NewReader(ciphertext))
}

var _ ObjectStorage = &encrypted{}
