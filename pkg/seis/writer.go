package seis

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"sort"
)

// Writer builds a SEIS file. Space for the header is reserved up
// front and patched during Finalise.
type Writer struct {
	f        *os.File
	sections []Section
	seen     map[SectionType]struct{}
	closed   bool
}

// NewWriter creates a writer targeting the given file. The file is
// truncated.
func NewWriter(f *os.File) (*Writer, error) {
	if f == nil {
		return nil, errors.New("seis: nil file")
	}
	if err := f.Truncate(0); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	w := &Writer{f: f, seen: make(map[SectionType]struct{})}
	if err := w.writeZeros(headerSize); err != nil {
		return nil, err
	}
	return w, nil
}

// WriteSection writes one section payload and records it in the
// directory. Sections may arrive in any order; a type may only be
// written once.
func (w *Writer) WriteSection(typ SectionType, version uint32, data []byte) error {
	if w.closed {
		return errors.New("seis: writer already finalised")
	}
	if _, ok := w.seen[typ]; ok {
		return errors.New("seis: duplicate section type")
	}
	if err := w.alignTo(align); err != nil {
		return err
	}
	offset, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := writeFull(w.f, data); err != nil {
		return err
	}
	w.sections = append(w.sections, Section{
		Type:    uint32(typ),
		Version: version,
		Offset:  uint64(offset),
		Size:    uint64(len(data)),
	})
	w.seen[typ] = struct{}{}
	return nil
}

// Finalise writes the section directory, truncates the file to its
// final size and patches the header.
func (w *Writer) Finalise() error {
	if w.closed {
		return errors.New("seis: writer already finalised")
	}
	w.closed = true

	sort.Slice(w.sections, func(i, j int) bool {
		return w.sections[i].Type < w.sections[j].Type
	})

	if err := w.alignTo(align); err != nil {
		return err
	}
	dirOffset, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	var buf [sectionSize]byte
	for _, s := range w.sections {
		binary.LittleEndian.PutUint32(buf[0:4], s.Type)
		binary.LittleEndian.PutUint32(buf[4:8], s.Version)
		binary.LittleEndian.PutUint64(buf[8:16], s.Offset)
		binary.LittleEndian.PutUint64(buf[16:24], s.Size)
		if err := writeFull(w.f, buf[:]); err != nil {
			return err
		}
	}
	fileSize, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := w.f.Truncate(fileSize); err != nil {
		return err
	}

	var hdr [headerSize]byte
	copy(hdr[0:4], MagicSEIS)
	binary.LittleEndian.PutUint16(hdr[4:6], CurrentMajor)
	binary.LittleEndian.PutUint16(hdr[6:8], CurrentMinor)
	binary.LittleEndian.PutUint32(hdr[8:12], headerSize)
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(len(w.sections)))
	binary.LittleEndian.PutUint64(hdr[16:24], uint64(dirOffset))
	binary.LittleEndian.PutUint64(hdr[24:32], uint64(fileSize))
	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := writeFull(w.f, hdr[:]); err != nil {
		return err
	}
	return w.f.Sync()
}

func (w *Writer) alignTo(n int64) error {
	pos, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if rem := pos % n; rem != 0 {
		return w.writeZeros(int(n - rem))
	}
	return nil
}

func (w *Writer) writeZeros(n int) error {
	return writeFull(w.f, make([]byte, n))
}

func writeFull(f *os.File, p []byte) error {
	for len(p) > 0 {
		n, err := f.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
