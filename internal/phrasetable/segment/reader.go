package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/latticemt/cubedecoder/internal/phrasetable"
)

// Reader provides random-access lookups into a single .ptx segment file
// without loading the whole payload region into memory.
type Reader struct {
	file     *os.File
	path     string
	header   SegmentHeader
	dict     []DictEntry
	postBase int64
}

// OpenReader opens and validates a .ptx segment file.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading segment header: %w", err)
	}
	magic := binary.LittleEndian.Uint32(headerBytes[0:4])
	if magic != MagicBytes {
		f.Close()
		return nil, fmt.Errorf("invalid segment file: bad magic bytes %x", magic)
	}
	header := SegmentHeader{
		Magic:       magic,
		Version:     binary.LittleEndian.Uint32(headerBytes[4:8]),
		PhraseCount: binary.LittleEndian.Uint32(headerBytes[8:12]),
		EntryCount:  binary.LittleEndian.Uint32(headerBytes[12:16]),
		DictOffset:  int64(binary.LittleEndian.Uint64(headerBytes[16:24])),
		DictSize:    int64(binary.LittleEndian.Uint64(headerBytes[24:32])),
		PostOffset:  int64(binary.LittleEndian.Uint64(headerBytes[32:40])),
		PostSize:    int64(binary.LittleEndian.Uint64(headerBytes[40:48])),
	}
	dictBytes := make([]byte, header.DictSize)
	if _, err := f.ReadAt(dictBytes, header.DictOffset); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	var dict []DictEntry
	if err := json.Unmarshal(dictBytes, &dict); err != nil {
		f.Close()
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}
	return &Reader{
		file:     f,
		path:     path,
		header:   header,
		dict:     dict,
		postBase: header.PostOffset,
	}, nil
}

// Path returns the filesystem path this reader was opened from.
func (r *Reader) Path() string {
	return r.path
}

// LookupPhrase implements phrasetable.Lookuper via a binary search over the
// sorted on-disk dictionary.
func (r *Reader) LookupPhrase(sourcePhrase string) []phrasetable.Entry {
	idx := sort.Search(len(r.dict), func(i int) bool {
		return r.dict[i].Phrase >= sourcePhrase
	})
	if idx >= len(r.dict) || r.dict[idx].Phrase != sourcePhrase {
		return nil
	}
	entry := r.dict[idx]
	payload := make([]byte, entry.PostLen)
	if _, err := r.file.ReadAt(payload, r.postBase+entry.PostOffset); err != nil {
		return nil
	}
	var entries []phrasetable.Entry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil
	}
	return entries
}

// PhraseCount returns the number of distinct source phrases in the segment.
func (r *Reader) PhraseCount() int {
	return len(r.dict)
}

// EntryCount returns the total number of scored entries in the segment.
func (r *Reader) EntryCount() uint32 {
	return r.header.EntryCount
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
