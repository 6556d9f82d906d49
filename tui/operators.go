package tui

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/tifye/crossroads/assert"
	"golang.org/x/crypto/ssh"
)

type fingerprint = string

// operators is the set of public keys allowed to add cars by hand. It
// is read from an authorized_keys style file on first use.
type operators struct {
	path string
	keys map[fingerprint]ssh.PublicKey
	mu   sync.RWMutex
}

func newOperators(path string) *operators {
	return &operators{
		path: path,
	}
}

func (o *operators) isOperator(pk ssh.PublicKey) (bool, error) {
	if pk == nil || o.path == "" {
		return false, nil
	}

	o.mu.Lock()
	if o.keys == nil {
		if err := o.loadInFromFile(); err != nil {
			o.mu.Unlock()
			return false, err
		}
	}
	o.mu.Unlock()

	fp := ssh.FingerprintSHA256(pk)

	o.mu.RLock()
	defer o.mu.RUnlock()
	_, exists := o.keys[fp]
	return exists, nil
}

func (o *operators) loadInFromFile() error {
	assert.Assert(o.keys == nil, "expected map to be nil")

	file, err := os.Open(o.path)
	if err != nil {
		return fmt.Errorf("could not open operators file: %s", err)
	}
	defer file.Close()

	keys, err := parseAuthorizedKeys(file)
	if err != nil {
		return fmt.Errorf("%s: %s", o.path, err)
	}
	o.keys = keys

	assert.AssertNotNil(o.keys)
	return nil
}

// parseAuthorizedKeys reads one key per line. Blank lines and lines
// starting with # are skipped.
func parseAuthorizedKeys(r io.Reader) (map[fingerprint]ssh.PublicKey, error) {
	keys := map[fingerprint]ssh.PublicKey{}
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++
		entry := bytes.TrimSpace(scanner.Bytes())
		if len(entry) == 0 || entry[0] == '#' {
			continue
		}

		pk, _, _, _, err := ssh.ParseAuthorizedKey(entry)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s", line, err)
		}
		keys[ssh.FingerprintSHA256(pk)] = pk
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
