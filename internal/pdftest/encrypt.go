package pdftest

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash"
	"regexp"
)

// Method selects the standard security handler variant used by Encrypt.
type Method int

const (
	RC4128 Method = iota // V2 R3, 128-bit RC4
	AES128               // V4 R4, AESV2 crypt filter
	AES256               // V5 R6, AESV3 crypt filter
)

// ID is the first file identifier written for encrypted files.
var ID = []byte("0123456789abcdef")

const permissions = int32(-3904)

var padding = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

type encryption struct {
	method Method
	key    []byte
	dict   string
}

// Encrypt makes the assembled file password protected. Stream data and
// strings written as ENC(text) are encrypted; the trailer gets a direct
// /Encrypt dictionary and an /ID. Only Bytes supports encryption.
func (b *Builder) Encrypt(m Method, user, owner string) *Builder {
	if owner == "" {
		owner = user
	}
	e := &encryption{method: m}
	switch m {
	case RC4128, AES128:
		o := ownerEntry([]byte(owner), []byte(user))
		e.key = fileKey([]byte(user), o)
		u := userEntry(e.key)
		if m == RC4128 {
			e.dict = fmt.Sprintf("<< /Filter /Standard /V 2 /R 3 /Length 128 /P %d /O <%x> /U <%x> >>", permissions, o, u)
		} else {
			e.dict = fmt.Sprintf("<< /Filter /Standard /V 4 /R 4 /Length 128 /P %d /O <%x> /U <%x> "+
				"/CF << /StdCF << /CFM /AESV2 /AuthEvent /DocOpen /Length 16 >> >> /StmF /StdCF /StrF /StdCF >>",
				permissions, o, u)
		}
	case AES256:
		e.key = bytes.Repeat([]byte{0x5a}, 32)
		uvs, uks := []byte("uvsalt01"), []byte("uksalt01")
		ovs, oks := []byte("ovsalt01"), []byte("oksalt01")
		u := append(append(hash2B([]byte(user), uvs, nil), uvs...), uks...)
		ue := aesNoIV(hash2B([]byte(user), uks, nil), e.key)
		o := append(append(hash2B([]byte(owner), ovs, u), ovs...), oks...)
		oe := aesNoIV(hash2B([]byte(owner), oks, u), e.key)
		e.dict = fmt.Sprintf("<< /Filter /Standard /V 5 /R 6 /Length 256 /P %d /O <%x> /U <%x> /OE <%x> /UE <%x> "+
			"/Perms <%x> /CF << /StdCF << /CFM /AESV3 /AuthEvent /DocOpen /Length 32 >> >> /StmF /StdCF /StrF /StdCF >>",
			permissions, o, u, oe, ue, bytes.Repeat([]byte{0}, 16))
	}
	b.crypt = e
	return b
}

func (b *Builder) cryptTrailer() string {
	if b.crypt == nil {
		return ""
	}
	return fmt.Sprintf(" /Encrypt %s /ID [<%x> <%x>]", b.crypt.dict, ID, ID)
}

var encMarker = regexp.MustCompile(`ENC\(([^)]*)\)`)

// plainStrings rewrites ENC(text) markers as literal strings.
func plainStrings(body string) string {
	return encMarker.ReplaceAllString(body, "($1)")
}

func (e *encryption) encryptStrings(num int, body string) string {
	return encMarker.ReplaceAllStringFunc(body, func(m string) string {
		text := encMarker.FindStringSubmatch(m)[1]
		return fmt.Sprintf("<%x>", e.encryptData(num, []byte(text)))
	})
}

func (e *encryption) encryptData(num int, data []byte) []byte {
	switch e.method {
	case RC4128:
		c, _ := rc4.NewCipher(objectKey(e.key, num, false))
		out := make([]byte, len(data))
		c.XORKeyStream(out, data)
		return out
	case AES128:
		return aesCBC(objectKey(e.key, num, true), data)
	default:
		return aesCBC(e.key, data)
	}
}

func objectKey(key []byte, num int, aes bool) []byte {
	h := md5.New()
	h.Write(key)
	h.Write([]byte{byte(num), byte(num >> 8), byte(num >> 16), 0, 0})
	if aes {
		h.Write([]byte("sAlT"))
	}
	n := len(key) + 5
	if n > 16 {
		n = 16
	}
	return h.Sum(nil)[:n]
}

func aesCBC(key, data []byte) []byte {
	block, _ := aes.NewCipher(key)
	pad := aes.BlockSize - len(data)%aes.BlockSize
	plain := append(append([]byte{}, data...), bytes.Repeat([]byte{byte(pad)}, pad)...)
	iv := []byte("fixed-iv-16bytes")
	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plain)
	return append(append([]byte{}, iv...), out...)
}

func aesNoIV(key, data []byte) []byte {
	block, _ := aes.NewCipher(key)
	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, make([]byte, 16)).CryptBlocks(out, data)
	return out
}

func pad(pw []byte) []byte {
	out := make([]byte, 32)
	n := copy(out, pw)
	copy(out[n:], padding)
	return out
}

// ownerEntry computes /O for revision 3 and 4.
func ownerEntry(owner, user []byte) []byte {
	sum := md5.Sum(pad(owner))
	k := sum[:]
	for i := 0; i < 50; i++ {
		s := md5.Sum(k)
		k = s[:]
	}
	out := pad(user)
	for i := 0; i < 20; i++ {
		xk := make([]byte, len(k))
		for j := range k {
			xk[j] = k[j] ^ byte(i)
		}
		c, _ := rc4.NewCipher(xk)
		c.XORKeyStream(out, out)
	}
	return out
}

// fileKey computes the revision 3 and 4 file key.
func fileKey(user, o []byte) []byte {
	h := md5.New()
	h.Write(pad(user))
	h.Write(o)
	var p [4]byte
	perms := permissions
	binary.LittleEndian.PutUint32(p[:], uint32(perms))
	h.Write(p[:])
	h.Write(ID)
	k := h.Sum(nil)
	for i := 0; i < 50; i++ {
		s := md5.Sum(k)
		k = s[:]
	}
	return k[:16]
}

// userEntry computes /U for revision 3 and 4.
func userEntry(key []byte) []byte {
	h := md5.New()
	h.Write(padding)
	h.Write(ID)
	out := h.Sum(nil)
	for i := 0; i < 20; i++ {
		xk := make([]byte, len(key))
		for j := range key {
			xk[j] = key[j] ^ byte(i)
		}
		c, _ := rc4.NewCipher(xk)
		c.XORKeyStream(out, out)
	}
	return append(out, make([]byte, 16)...)
}

// hash2B is the revision 6 password hash.
func hash2B(pwd, salt, udata []byte) []byte {
	sum := sha256.Sum256(append(append(append([]byte{}, pwd...), salt...), udata...))
	k := sum[:]
	for round := 1; ; round++ {
		seq := append(append(append([]byte{}, pwd...), k...), udata...)
		k1 := bytes.Repeat(seq, 64)
		block, _ := aes.NewCipher(k[:16])
		e := make([]byte, len(k1))
		cipher.NewCBCEncrypter(block, k[16:32]).CryptBlocks(e, k1)

		mod := 0
		for _, c := range e[:16] {
			mod += int(c)
		}
		var h hash.Hash
		switch mod % 3 {
		case 0:
			h = sha256.New()
		case 1:
			h = sha512.New384()
		default:
			h = sha512.New()
		}
		h.Write(e)
		k = h.Sum(nil)
		if round >= 64 && int(e[len(e)-1]) <= round-32 {
			break
		}
	}
	return k[:32]
}
