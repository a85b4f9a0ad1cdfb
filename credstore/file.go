package credstore

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// fileDocument is the single JSON document a File store keeps on disk.
// Credential and identity are independently clearable fields of one file so a
// partial write can never split the token pair.
type fileDocument struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Identity     *Identity `json:"identity,omitempty"`
}

// File is a Store backed by a single JSON file. Writes go through a temp file
// and rename so readers never observe a torn document.
type File struct {
	path string
	mode fs.FileMode
	mu   sync.Mutex
}

// NewFile creates a file-backed store at path. The file is created lazily on
// first save with permissions 0600.
func NewFile(path string) *File {
	return &File{path: path, mode: 0o600}
}

// LoadCredential returns the persisted token pair. A missing file, unreadable
// JSON, or a pair with only one token present all load as absent.
func (f *File) LoadCredential(context.Context) (Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := f.read()
	cred := Credential{AccessToken: doc.AccessToken, RefreshToken: doc.RefreshToken}
	if !cred.Present() {
		return Credential{}, nil
	}
	return cred, nil
}

// SaveCredential persists the token pair, keeping any stored identity.
func (f *File) SaveCredential(_ context.Context, cred Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := f.read()
	if !cred.Present() {
		doc.AccessToken = ""
		doc.RefreshToken = ""
	} else {
		doc.AccessToken = cred.AccessToken
		doc.RefreshToken = cred.RefreshToken
	}
	return f.write(doc)
}

// ClearCredential removes the token pair, keeping any stored identity.
func (f *File) ClearCredential(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := f.read()
	doc.AccessToken = ""
	doc.RefreshToken = ""
	return f.write(doc)
}

// LoadIdentity returns the persisted identity snapshot, or absent.
func (f *File) LoadIdentity(context.Context) (Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := f.read()
	if doc.Identity == nil || !doc.Identity.Present() {
		return Identity{}, nil
	}
	return *doc.Identity, nil
}

// SaveIdentity persists the identity snapshot, keeping any stored credential.
func (f *File) SaveIdentity(_ context.Context, identity Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := f.read()
	if !identity.Present() {
		doc.Identity = nil
	} else {
		doc.Identity = &identity
	}
	return f.write(doc)
}

// ClearIdentity removes the identity snapshot, keeping any stored credential.
func (f *File) ClearIdentity(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := f.read()
	doc.Identity = nil
	return f.write(doc)
}

// read decodes the document on disk. Corrupt or missing content decodes as an
// empty document.
func (f *File) read() fileDocument {
	var doc fileDocument

	data, err := os.ReadFile(f.path)
	if err != nil {
		return fileDocument{}
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fileDocument{}
	}
	return doc
}

func (f *File) write(doc fileDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(f.mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
