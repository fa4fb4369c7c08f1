// Package security implements the PDF standard security handler for
// reading encrypted documents. Revisions 2 through 6 are supported with
// RC4, AESV2 and AESV3 crypt filters.
package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"

	"github.com/tsawler/folio/core"
)

var (
	// ErrUnsupported is returned for security handlers, versions or
	// revisions this package cannot read.
	ErrUnsupported = errors.New("unsupported security handler")
	// ErrPasswordRequired is returned when the document cannot be
	// opened with the empty password and none was supplied.
	ErrPasswordRequired = errors.New("password required")
	// ErrIncorrectPassword is returned when a supplied password matches
	// neither the user nor the owner password.
	ErrIncorrectPassword = errors.New("incorrect password")
)

var padding = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

type method int

const (
	methodIdentity method = iota
	methodRC4
	methodAESV2
	methodAESV3
)

// Permissions are the access flags from the /P entry.
type Permissions struct {
	Print             bool
	Modify            bool
	Copy              bool
	ModifyAnnotations bool
	FillForms         bool
	ExtractAccessible bool
	Assemble          bool
	PrintHighQuality  bool
}

// AllPermissions returns Permissions with every flag set.
func AllPermissions() Permissions {
	return Permissions{true, true, true, true, true, true, true, true}
}

// Handler decrypts strings and streams of one document. Authenticate
// must succeed before any decryption.
type Handler struct {
	v, r        int
	keyLen      int // bytes
	o, u        []byte
	oe, ue      []byte
	p           int32
	id          []byte
	encryptMeta bool

	stmF, strF method
	filters    map[string]method

	key   []byte
	owner bool
}

// NewStandardHandler builds a handler from an /Encrypt dictionary and the
// first element of the trailer /ID array.
func NewStandardHandler(encrypt core.Dict, id []byte) (*Handler, error) {
	if f, _ := encrypt.GetName("Filter"); f != "Standard" {
		return nil, fmt.Errorf("%w: filter %q", ErrUnsupported, f)
	}
	v, _ := encrypt.GetInt("V")
	r, _ := encrypt.GetInt("R")
	h := &Handler{
		v:           int(v),
		r:           int(r),
		id:          id,
		encryptMeta: true,
		filters:     map[string]method{"Identity": methodIdentity},
	}
	if p, ok := encrypt.GetInt("P"); ok {
		h.p = int32(p)
	}
	if b, ok := encrypt.GetBool("EncryptMetadata"); ok {
		h.encryptMeta = bool(b)
	}
	h.o = stringBytes(encrypt, "O")
	h.u = stringBytes(encrypt, "U")
	h.oe = stringBytes(encrypt, "OE")
	h.ue = stringBytes(encrypt, "UE")

	switch h.v {
	case 0, 1:
		h.keyLen = 5
		h.stmF, h.strF = methodRC4, methodRC4
	case 2, 3:
		h.keyLen = 5
		if n, ok := encrypt.GetInt("Length"); ok && n >= 40 && n <= 128 && n%8 == 0 {
			h.keyLen = int(n) / 8
		}
		h.stmF, h.strF = methodRC4, methodRC4
	case 4, 5:
		h.keyLen = 16
		if h.v == 5 {
			h.keyLen = 32
		}
		if err := h.readCryptFilters(encrypt); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: version %d", ErrUnsupported, h.v)
	}
	if h.r < 2 || h.r > 6 {
		return nil, fmt.Errorf("%w: revision %d", ErrUnsupported, h.r)
	}
	if (h.v == 5) != (h.r >= 5) {
		return nil, fmt.Errorf("%w: V %d with R %d", ErrUnsupported, h.v, h.r)
	}
	if h.r >= 5 && (len(h.u) < 48 || len(h.o) < 48 || len(h.ue) < 32 || len(h.oe) < 32) {
		return nil, fmt.Errorf("%w: short /U, /O, /UE or /OE entry", ErrUnsupported)
	}
	if h.r < 5 && (len(h.u) < 32 || len(h.o) < 32) {
		return nil, fmt.Errorf("%w: short /U or /O entry", ErrUnsupported)
	}
	return h, nil
}

func (h *Handler) readCryptFilters(encrypt core.Dict) error {
	cf, _ := encrypt.GetDict("CF")
	for name, obj := range cf {
		d, ok := obj.(core.Dict)
		if !ok {
			continue
		}
		cfm, _ := d.GetName("CFM")
		switch cfm {
		case "V2":
			h.filters[name] = methodRC4
		case "AESV2":
			h.filters[name] = methodAESV2
		case "AESV3":
			h.filters[name] = methodAESV3
		case "None", "":
			h.filters[name] = methodIdentity
		default:
			return fmt.Errorf("%w: crypt filter method %q", ErrUnsupported, cfm)
		}
	}
	lookup := func(key string) (method, error) {
		name, ok := encrypt.GetName(key)
		if !ok {
			return methodIdentity, nil
		}
		m, ok := h.filters[string(name)]
		if !ok {
			return 0, fmt.Errorf("%w: undefined crypt filter %q", ErrUnsupported, name)
		}
		return m, nil
	}
	var err error
	if h.stmF, err = lookup("StmF"); err != nil {
		return err
	}
	h.strF, err = lookup("StrF")
	return err
}

func stringBytes(d core.Dict, key string) []byte {
	s, _ := d.GetString(key)
	return []byte(s)
}

// Authenticate derives the file key from password, trying it first as
// the user password and then as the owner password.
func (h *Handler) Authenticate(password string) error {
	pwd := []byte(password)
	if h.r >= 5 {
		if len(pwd) > 127 {
			pwd = pwd[:127]
		}
		if h.authUserV5(pwd) {
			return nil
		}
		if h.authOwnerV5(pwd) {
			h.owner = true
			return nil
		}
	} else {
		if h.authUser(pwd) {
			return nil
		}
		if h.authOwner(pwd) {
			h.owner = true
			return nil
		}
	}
	if password == "" {
		return ErrPasswordRequired
	}
	return ErrIncorrectPassword
}

// Authenticated reports whether a file key has been derived.
func (h *Handler) Authenticated() bool {
	return h.key != nil
}

// IsOwner reports whether the owner password was used.
func (h *Handler) IsOwner() bool {
	return h.owner
}

// EncryptMetadata reports whether metadata streams are encrypted.
func (h *Handler) EncryptMetadata() bool {
	return h.encryptMeta
}

// Permissions decodes the /P flags.
func (h *Handler) Permissions() Permissions {
	bit := func(n uint) bool { return h.p&(1<<(n-1)) != 0 }
	perms := Permissions{
		Print:             bit(3),
		Modify:            bit(4),
		Copy:              bit(5),
		ModifyAnnotations: bit(6),
	}
	if h.r >= 3 {
		perms.FillForms = bit(9)
		perms.ExtractAccessible = bit(10)
		perms.Assemble = bit(11)
		perms.PrintHighQuality = bit(12)
	} else {
		perms.FillForms = perms.ModifyAnnotations
		perms.ExtractAccessible = perms.Copy
		perms.Assemble = perms.Modify
		perms.PrintHighQuality = perms.Print
	}
	return perms
}

func pad(pwd []byte) []byte {
	out := make([]byte, 32)
	n := copy(out, pwd)
	copy(out[n:], padding)
	return out
}

// computeKey is algorithm 2.
func (h *Handler) computeKey(pwd []byte) []byte {
	m := md5.New()
	m.Write(pad(pwd))
	m.Write(h.o[:32])
	var p [4]byte
	binary.LittleEndian.PutUint32(p[:], uint32(h.p))
	m.Write(p[:])
	m.Write(h.id)
	if h.r >= 4 && !h.encryptMeta {
		m.Write([]byte{0xff, 0xff, 0xff, 0xff})
	}
	key := m.Sum(nil)
	if h.r >= 3 {
		for i := 0; i < 50; i++ {
			sum := md5.Sum(key[:h.keyLen])
			key = sum[:]
		}
	}
	return key[:h.keyLen]
}

// userEntry computes /U for a candidate key (algorithms 4 and 5).
func (h *Handler) userEntry(key []byte) []byte {
	if h.r == 2 {
		out := make([]byte, 32)
		rc4XOR(key, out, padding)
		return out
	}
	m := md5.New()
	m.Write(padding)
	m.Write(h.id)
	out := m.Sum(nil)
	for i := 0; i < 20; i++ {
		rc4XOR(xorKey(key, byte(i)), out, out)
	}
	return out
}

func (h *Handler) authUser(pwd []byte) bool {
	key := h.computeKey(pwd)
	u := h.userEntry(key)
	n := 32
	if h.r >= 3 {
		n = 16
	}
	if !bytes.Equal(u[:n], h.u[:n]) {
		return false
	}
	h.key = key
	return true
}

// authOwner recovers the user password from /O (algorithm 7).
func (h *Handler) authOwner(pwd []byte) bool {
	sum := md5.Sum(pad(pwd))
	k := sum[:]
	if h.r >= 3 {
		for i := 0; i < 50; i++ {
			s := md5.Sum(k)
			k = s[:]
		}
	}
	k = k[:h.keyLen]

	user := make([]byte, 32)
	copy(user, h.o[:32])
	if h.r == 2 {
		rc4XOR(k, user, user)
	} else {
		for i := 19; i >= 0; i-- {
			rc4XOR(xorKey(k, byte(i)), user, user)
		}
	}
	return h.authUser(user)
}

func (h *Handler) authUserV5(pwd []byte) bool {
	if !bytes.Equal(h.hash(pwd, h.u[32:40], nil), h.u[:32]) {
		return false
	}
	h.key = aesDecryptNoIV(h.hash(pwd, h.u[40:48], nil), h.ue[:32])
	return h.key != nil
}

func (h *Handler) authOwnerV5(pwd []byte) bool {
	udata := h.u[:48]
	if !bytes.Equal(h.hash(pwd, h.o[32:40], udata), h.o[:32]) {
		return false
	}
	h.key = aesDecryptNoIV(h.hash(pwd, h.o[40:48], udata), h.oe[:32])
	return h.key != nil
}

// hash is the revision 5 SHA-256 hash or the revision 6 hardened hash
// (algorithm 2.B).
func (h *Handler) hash(pwd, salt, udata []byte) []byte {
	input := make([]byte, 0, len(pwd)+len(salt)+len(udata))
	input = append(append(append(input, pwd...), salt...), udata...)
	sum := sha256.Sum256(input)
	k := sum[:]
	if h.r == 5 {
		return k
	}

	for round := 1; ; round++ {
		seq := make([]byte, 0, len(pwd)+len(k)+len(udata))
		seq = append(append(append(seq, pwd...), k...), udata...)
		k1 := bytes.Repeat(seq, 64)

		block, err := aes.NewCipher(k[:16])
		if err != nil {
			return nil
		}
		e := make([]byte, len(k1))
		cipher.NewCBCEncrypter(block, k[16:32]).CryptBlocks(e, k1)

		sum := 0
		for _, c := range e[:16] {
			sum += int(c)
		}
		var next hash.Hash
		switch sum % 3 {
		case 0:
			next = sha256.New()
		case 1:
			next = sha512.New384()
		default:
			next = sha512.New()
		}
		next.Write(e)
		k = next.Sum(nil)

		if round >= 64 && int(e[len(e)-1]) <= round-32 {
			break
		}
	}
	return k[:32]
}

func aesDecryptNoIV(key, data []byte) []byte {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(out, data)
	return out
}

func rc4XOR(key, dst, src []byte) {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return
	}
	c.XORKeyStream(dst, src)
}

func xorKey(key []byte, b byte) []byte {
	out := make([]byte, len(key))
	for i := range key {
		out[i] = key[i] ^ b
	}
	return out
}

// objectKey is algorithm 1: the file key extended with the object
// number and generation, salted for AES.
func (h *Handler) objectKey(ref core.IndirectRef, aesSalt bool) []byte {
	m := md5.New()
	m.Write(h.key)
	n, g := ref.Number, ref.Generation
	m.Write([]byte{byte(n), byte(n >> 8), byte(n >> 16), byte(g), byte(g >> 8)})
	if aesSalt {
		m.Write([]byte("sAlT"))
	}
	size := len(h.key) + 5
	if size > 16 {
		size = 16
	}
	return m.Sum(nil)[:size]
}

// DecryptString decrypts a string belonging to object ref.
func (h *Handler) DecryptString(ref core.IndirectRef, data []byte) ([]byte, error) {
	return h.decrypt(h.strF, ref, data)
}

// DecryptStream decrypts stream data belonging to object ref. A non-empty
// filter names a crypt filter from the stream's own /Crypt filter
// entry; otherwise the document's /StmF applies.
func (h *Handler) DecryptStream(ref core.IndirectRef, data []byte, filter string) ([]byte, error) {
	m := h.stmF
	if filter != "" {
		var ok bool
		if m, ok = h.filters[filter]; !ok {
			return nil, fmt.Errorf("%w: undefined crypt filter %q", ErrUnsupported, filter)
		}
	}
	return h.decrypt(m, ref, data)
}

func (h *Handler) decrypt(m method, ref core.IndirectRef, data []byte) ([]byte, error) {
	if h.key == nil {
		return nil, ErrPasswordRequired
	}
	switch m {
	case methodIdentity:
		return data, nil
	case methodRC4:
		out := make([]byte, len(data))
		rc4XOR(h.objectKey(ref, false), out, data)
		return out, nil
	case methodAESV2:
		return aesDecrypt(h.objectKey(ref, true), data)
	case methodAESV3:
		return aesDecrypt(h.key, data)
	}
	return nil, fmt.Errorf("%w: method %d", ErrUnsupported, m)
}

// aesDecrypt decrypts CBC data whose first block is the IV. Trailing
// partial blocks are dropped and bad padding is left in place.
func aesDecrypt(key, data []byte) ([]byte, error) {
	if len(data) < aes.BlockSize {
		return []byte{}, nil
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes key: %w", err)
	}
	iv, body := data[:aes.BlockSize], data[aes.BlockSize:]
	body = body[:len(body)-len(body)%aes.BlockSize]
	if len(body) == 0 {
		return []byte{}, nil
	}
	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)

	if n := int(out[len(out)-1]); n > 0 && n <= aes.BlockSize && n <= len(out) {
		if bytes.Equal(out[len(out)-n:], bytes.Repeat([]byte{byte(n)}, n)) {
			out = out[:len(out)-n]
		}
	}
	return out, nil
}
