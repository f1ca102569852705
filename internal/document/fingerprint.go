package document

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes the name, size and modification time of every page.
// Two scans of an unchanged directory have the same fingerprint.
func (d *Dir) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, p := range d.pages {
		_, _ = h.WriteString(p.Path)
		_, _ = h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], uint64(p.Size))
		_, _ = h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(p.ModTime.UnixNano()))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
