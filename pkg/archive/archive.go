// Package archive unpacks Quill documents.
//
// A Quill document is a zip archive holding a JSON scene description
// ([MetadataMember]) and a binary blob of stroke records ([BinaryMember]).
// [Open] decompresses every member into memory once; the returned [Archive]
// is never modified afterwards, so its byte slices can be shared by any
// number of concurrent decoders.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/zip"

	"github.com/matzehuels/quillribbon/pkg/errors"
)

const (
	// MetadataMember is the name of the JSON scene description.
	MetadataMember = "Quill.json"

	// BinaryMember is the name of the binary stroke data.
	BinaryMember = "Quill.qbin"

	// MaxMemberSize caps the decompressed size of a single member (1 GiB).
	MaxMemberSize = 1 << 30
)

// Archive is the decompressed content of a Quill document.
type Archive struct {
	// Members maps member names to their decompressed bytes.
	Members map[string][]byte

	// Skipped lists other members that could not be used: unsafe names,
	// oversized or unreadable content. They never fail the document.
	Skipped []string
}

// Open decompresses a zip stream and checks that both required members
// exist. A problem with [MetadataMember] or [BinaryMember] fails with
// INVALID_ARCHIVE; a problem with any other member only lands it in Skipped.
func Open(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArchive, err, "read zip")
	}

	a := &Archive{Members: make(map[string][]byte, len(zr.File))}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		b, err := extract(f)
		if err != nil {
			if required(f.Name) {
				return nil, err
			}
			a.Skipped = append(a.Skipped, f.Name)
			continue
		}
		a.Members[f.Name] = b
	}

	for _, name := range []string{MetadataMember, BinaryMember} {
		if _, ok := a.Members[name]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidArchive, "missing member %q", name)
		}
	}
	return a, nil
}

func required(name string) bool {
	return name == MetadataMember || name == BinaryMember
}

// extract validates and decompresses one member.
func extract(f *zip.File) ([]byte, error) {
	if err := errors.ValidateMemberName(f.Name); err != nil {
		return nil, err
	}
	if f.UncompressedSize64 > MaxMemberSize {
		return nil, errors.New(errors.ErrCodeInvalidArchive, "member %q too large (%d bytes)", f.Name, f.UncompressedSize64)
	}
	b, err := readMember(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArchive, err, "read member %q", f.Name)
	}
	return b, nil
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(io.LimitReader(rc, MaxMemberSize+1))
	if err != nil {
		return nil, err
	}
	if len(b) > MaxMemberSize {
		return nil, fmt.Errorf("exceeds %d bytes", MaxMemberSize)
	}
	return b, nil
}

// Metadata returns the JSON scene description.
func (a *Archive) Metadata() []byte { return a.Members[MetadataMember] }

// Binary returns the binary stroke data.
func (a *Archive) Binary() []byte { return a.Members[BinaryMember] }

// Names returns the member names in sorted order.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.Members))
	for name := range a.Members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
