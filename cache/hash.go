package cache

import (
	"encoding/binary"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// cleanUpWithHash empties dir when the hash stored in it differs from newHash.
func cleanUpWithHash(dir string, newHash uint32) error {
	hashFile := filepath.Join(dir, "hash")

	b := make([]byte, 4)
	oldHash := newHash + 1

	fs, err := os.Open(hashFile)
	if err == nil {
		_, err = io.ReadFull(fs, b)
		fs.Close()
		if err == nil {
			oldHash = binary.BigEndian.Uint32(b)
		}
	} else if !os.IsNotExist(err) {
		return errors.WithStack(err)
	}

	if newHash == oldHash {
		return nil
	}

	err = os.RemoveAll(dir)
	if err != nil {
		return errors.WithStack(err)
	}
	err = os.MkdirAll(dir, 0700)
	if err != nil {
		return errors.WithStack(err)
	}

	binary.BigEndian.PutUint32(b, newHash)
	return errors.WithStack(os.WriteFile(hashFile, b, 0600))
}

func hashStrings(s ...string) uint32 {
	h := fnv.New32a()
	for _, v := range s {
		io.WriteString(h, v)
		h.Write([]byte{0})
	}
	return h.Sum32()
}
