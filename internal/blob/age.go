package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
)

// Encrypted seals every object with age before handing it to the wrapped
// store.  Get needs the matching identity.
type Encrypted struct {
	inner     Store
	recipient age.Recipient
	identity  age.Identity
}

// NewEncrypted wraps inner with an X25519 recipient ("age1...").  identity
// ("AGE-SECRET-KEY-1...") may be empty for write-only use.
func NewEncrypted(inner Store, recipient, identity string) (*Encrypted, error) {
	r, err := age.ParseX25519Recipient(strings.TrimSpace(recipient))
	if err != nil {
		return nil, fmt.Errorf("parsing age recipient: %w", err)
	}
	e := &Encrypted{inner: inner, recipient: r}
	if identity != "" {
		id, err := age.ParseX25519Identity(strings.TrimSpace(identity))
		if err != nil {
			return nil, fmt.Errorf("parsing age identity: %w", err)
		}
		e.identity = id
	}
	return e, nil
}

// Put encrypts r and stores the ciphertext under path + ".age".
func (e *Encrypted) Put(ctx context.Context, path, _ string, r io.Reader, _ int64) error {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, e.recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	return e.inner.Put(ctx, path+".age", "application/octet-stream", &buf, int64(buf.Len()))
}

func (e *Encrypted) Get(ctx context.Context, path string, w io.Writer) error {
	if e.identity == nil {
		return fmt.Errorf("reading %s: no age identity configured", path)
	}
	var buf bytes.Buffer
	if err := e.inner.Get(ctx, path+".age", &buf); err != nil {
		return err
	}
	dec, err := age.Decrypt(&buf, e.identity)
	if err != nil {
		return fmt.Errorf("creating decrypted reader: %w", err)
	}
	if _, err := io.Copy(w, dec); err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}
	return nil
}

var _ Store = (*Encrypted)(nil)
