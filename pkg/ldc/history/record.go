package history

import (
	"bytes"
	"encoding/gob"
	"time"
)

const (
	keyPrefix    = "manifest"
	keySeparator = '\x00'
)

// Record describes one saved manifest.
type Record struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Path      string    `json:"path" yaml:"path"`
	Root      string    `json:"root" yaml:"root"`
	Entries   int       `json:"entries" yaml:"entries"`
	Encrypted bool      `json:"encrypted" yaml:"encrypted"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

func (r *Record) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Record) decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(r)
}

// makeKey builds manifest\x00<name>\x00<id>.
func makeKey(name, id string) []byte {
	return []byte(keyPrefix + string(keySeparator) + name + string(keySeparator) + id)
}

func namePrefix(name string) []byte {
	return []byte(keyPrefix + string(keySeparator) + name + string(keySeparator))
}

func allPrefix() []byte {
	return []byte(keyPrefix + string(keySeparator))
}
