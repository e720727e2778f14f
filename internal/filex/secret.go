package filex

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/dmitrijs2005/weelo-captain/internal/cryptox"
)

const secretBytes = 32

// ReadOrCreateSecret returns the hex secret stored at path, creating it with
// fresh random bytes and owner-only permissions on first use. A file that
// others can read is tightened to 0600.
func ReadOrCreateSecret(path string) (string, error) {
	if _, err := EnsureParentDir(path); err != nil {
		return "", err
	}

	secret, err := readSecret(path)
	if !errors.Is(err, fs.ErrNotExist) {
		return secret, err
	}

	raw, err := cryptox.RandomBytes(secretBytes)
	if err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	secret = hex.EncodeToString(raw)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		// another process won the race
		return readSecret(path)
	}
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(secret + "\n"); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return secret, nil
}

func readSecret(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if runtime.GOOS != "windows" && fi.Mode().Perm()&0o077 != 0 {
		if err := os.Chmod(path, 0o600); err != nil {
			return "", fmt.Errorf("chmod %s: %w", path, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("%s is empty", path)
	}
	return secret, nil
}
