// Package snapshot persists libraries, documents, and chunks as a single
// JSON document with a small header carrying a format version and a
// CRC32 checksum of the payload, mirroring the magic/version/checksum
// envelope pattern used for the binary index snapshots this database's
// teacher writes -- simplified here to JSON because the payload is a
// handful of entity maps, not a raw vector index. Index internal state
// is never written: Load hands back the raw entities and the caller
// rebuilds every index from the chunk list.
package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Kshitij-Bakliwal/vector-db-api/model"
)

const formatVersion = 1

var magic = [4]byte{'V', 'D', 'B', '1'}

// payload is the JSON body of a snapshot: the three entity maps and the
// save time. The binary header is written separately, ahead of it.
type payload struct {
	Libraries map[uuid.UUID]*model.Library  `json:"libraries"`
	Documents map[uuid.UUID]*model.Document `json:"documents"`
	Chunks    map[uuid.UUID]*model.Chunk    `json:"chunks"`
	SavedAt   time.Time                     `json:"saved_at"`
}

// Snapshot is a loaded snapshot's entities, ready to be re-inserted into
// fresh stores and re-indexed.
type Snapshot struct {
	Libraries []*model.Library
	Documents []*model.Document
	Chunks    []*model.Chunk
	SavedAt   time.Time
}

// Save writes libs/docs/chunks to w as a versioned, checksummed JSON envelope.
func Save(w io.Writer, libs []*model.Library, docs []*model.Document, chunks []*model.Chunk) error {
	p := payload{
		Libraries: make(map[uuid.UUID]*model.Library, len(libs)),
		Documents: make(map[uuid.UUID]*model.Document, len(docs)),
		Chunks:    make(map[uuid.UUID]*model.Chunk, len(chunks)),
		SavedAt:   time.Now(),
	}
	for _, l := range libs {
		p.Libraries[l.ID] = l
	}
	for _, d := range docs {
		p.Documents[d.ID] = d
	}
	for _, c := range chunks {
		p.Chunks[c.ID] = c
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("snapshot: marshal payload: %w", err)
	}
	checksum := crc32.ChecksumIEEE(body)

	var hdr [12]byte
	copy(hdr[0:4], magic[:])
	binary.LittleEndian.PutUint16(hdr[4:6], formatVersion)
	binary.LittleEndian.PutUint32(hdr[8:12], checksum)

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("snapshot: write payload: %w", err)
	}
	return nil
}

// SaveToFile writes a snapshot to filename, replacing its prior contents.
func SaveToFile(filename string, libs []*model.Library, docs []*model.Document, chunks []*model.Chunk) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", filename, err)
	}
	defer f.Close()
	return Save(f, libs, docs, chunks)
}

// Load reads a snapshot written by Save, verifying its header and checksum.
func Load(r io.Reader) (*Snapshot, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	if len(raw) < 12 {
		return nil, fmt.Errorf("snapshot: truncated header")
	}
	var hdr [4]byte
	copy(hdr[:], raw[0:4])
	if hdr != magic {
		return nil, fmt.Errorf("snapshot: bad magic")
	}
	version := binary.LittleEndian.Uint16(raw[4:6])
	if version != formatVersion {
		return nil, fmt.Errorf("snapshot: unsupported format version %d", version)
	}
	wantChecksum := binary.LittleEndian.Uint32(raw[8:12])

	body := raw[12:]
	if got := crc32.ChecksumIEEE(body); got != wantChecksum {
		return nil, fmt.Errorf("snapshot: checksum mismatch: expected 0x%08x, got 0x%08x", wantChecksum, got)
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal payload: %w", err)
	}

	out := &Snapshot{
		Libraries: make([]*model.Library, 0, len(p.Libraries)),
		Documents: make([]*model.Document, 0, len(p.Documents)),
		Chunks:    make([]*model.Chunk, 0, len(p.Chunks)),
		SavedAt:   p.SavedAt,
	}
	for _, l := range p.Libraries {
		out.Libraries = append(out.Libraries, l)
	}
	for _, d := range p.Documents {
		out.Documents = append(out.Documents, d)
	}
	for _, c := range p.Chunks {
		out.Chunks = append(out.Chunks, c)
	}
	return out, nil
}

// LoadFromFile reads and verifies a snapshot from filename.
func LoadFromFile(filename string) (*Snapshot, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", filename, err)
	}
	defer f.Close()
	return Load(f)
}
