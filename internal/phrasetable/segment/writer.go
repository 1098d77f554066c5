// Package segment serializes phrase table entries to and from a compact
// on-disk format (.ptx), grounded on internal/indexer/segment's .spdx
// layout: a fixed-size binary header, a JSON-encoded dictionary, and a
// JSON-encoded payload region, written to a .tmp file and renamed into
// place for atomicity.
package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/latticemt/cubedecoder/internal/phrasetable"
)

// MagicBytes identifies a valid .ptx phrase table segment file.
const (
	MagicBytes    uint32 = 0x50545853 // "PTXS"
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FooterSize    int    = 32
)

// SegmentHeader is the 64-byte header written at the start of every segment.
type SegmentHeader struct {
	Magic       uint32
	Version     uint32
	PhraseCount uint32
	EntryCount  uint32
	CreatedAt   int64
	DictOffset  int64
	DictSize    int64
	PostOffset  int64
	PostSize    int64
}

// DictEntry maps a source phrase to its entries' offset and length within
// the payload region.
type DictEntry struct {
	Phrase     string `json:"p"`
	PostOffset int64  `json:"o"`
	PostLen    int    `json:"l"`
	EntryCount int    `json:"n"`
}

// Writer serialises phrase table snapshots into new .ptx segment files.
type Writer struct {
	dataDir string
}

// NewWriter creates a Writer that writes segments into the given directory.
func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// Write atomically creates a new segment file containing the given phrase
// entries. It writes to a .tmp file first and renames on success.
func (w *Writer) Write(entries []phrasetable.PhraseEntry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("cannot write empty segment")
	}
	segmentName := fmt.Sprintf("seg_%d.ptx", time.Now().UnixNano())
	finalPath := filepath.Join(w.dataDir, segmentName)
	tmpPath := finalPath + ".tmp"

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating segment directory: %w", err)
	}
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp segment file: %w", err)
	}
	defer f.Close()

	headerBytes := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(headerBytes[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(headerBytes[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(headerBytes[8:12], uint32(len(entries)))
	if _, err := f.Write(headerBytes); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}

	postingsStart, _ := f.Seek(0, 1)
	dict := make([]DictEntry, 0, len(entries))
	totalEntries := 0
	for _, pe := range entries {
		offset, _ := f.Seek(0, 1)
		relOffset := offset - postingsStart
		payload, err := json.Marshal(pe.Entries)
		if err != nil {
			return "", fmt.Errorf("marshaling entries for phrase %q: %w", pe.Phrase, err)
		}
		if _, err := f.Write(payload); err != nil {
			return "", fmt.Errorf("writing entries for phrase %q: %w", pe.Phrase, err)
		}
		dict = append(dict, DictEntry{
			Phrase:     pe.Phrase,
			PostOffset: relOffset,
			PostLen:    len(payload),
			EntryCount: len(pe.Entries),
		})
		totalEntries += len(pe.Entries)
	}

	postingsEnd, _ := f.Seek(0, 1)
	postingsSize := postingsEnd - postingsStart
	dictStart := postingsEnd
	dictData, err := json.Marshal(dict)
	if err != nil {
		return "", fmt.Errorf("marshaling dictionary: %w", err)
	}
	if _, err := f.Write(dictData); err != nil {
		return "", fmt.Errorf("writing dictionary: %w", err)
	}
	dictEnd, _ := f.Seek(0, 1)
	dictSize := dictEnd - dictStart
	checksum := crc32.ChecksumIEEE(dictData)
	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], checksum)
	binary.LittleEndian.PutUint32(footer[4:8], uint32(totalEntries))
	binary.LittleEndian.PutUint64(footer[8:16], uint64(dictStart))
	binary.LittleEndian.PutUint64(footer[16:24], uint64(dictSize))
	binary.LittleEndian.PutUint64(footer[24:32], uint64(postingsSize))
	if _, err := f.Write(footer); err != nil {
		return "", fmt.Errorf("writing footer: %w", err)
	}

	binary.LittleEndian.PutUint32(headerBytes[12:16], uint32(totalEntries))
	binary.LittleEndian.PutUint64(headerBytes[16:24], uint64(dictStart))
	binary.LittleEndian.PutUint64(headerBytes[24:32], uint64(dictSize))
	binary.LittleEndian.PutUint64(headerBytes[32:40], uint64(postingsStart))
	binary.LittleEndian.PutUint64(headerBytes[40:48], uint64(postingsSize))
	if _, err := f.WriteAt(headerBytes, 0); err != nil {
		return "", fmt.Errorf("updating header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("syncing segment file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("renaming segment file: %w", err)
	}
	return segmentName, nil
}
