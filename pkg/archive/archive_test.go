package archive

import (
	"bytes"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"

	"github.com/matzehuels/quillribbon/pkg/errors"
)

func buildZip(t *testing.T, members map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create(%q): %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("Write(%q): %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestOpen(t *testing.T) {
	meta := []byte(`{"Sequence":{}}`)
	bin := []byte{0, 0, 0, 0}
	data := buildZip(t, map[string][]byte{
		MetadataMember: meta,
		BinaryMember:   bin,
		"State.json":   []byte(`{}`),
	})

	a, err := Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if diff := cmp.Diff(meta, a.Metadata()); diff != "" {
		t.Errorf("Metadata() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(bin, a.Binary()); diff != "" {
		t.Errorf("Binary() mismatch (-want +got):\n%s", diff)
	}
	want := []string{BinaryMember, MetadataMember, "State.json"}
	if diff := cmp.Diff(want, a.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenMissingMember(t *testing.T) {
	tests := []struct {
		name    string
		members map[string][]byte
	}{
		{"no metadata", map[string][]byte{BinaryMember: {0, 0, 0, 0}}},
		{"no binary", map[string][]byte{MetadataMember: []byte(`{}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(buildZip(t, tt.members))
			if !errors.Is(err, errors.ErrCodeInvalidArchive) {
				t.Errorf("Open() error = %v, want %s", err, errors.ErrCodeInvalidArchive)
			}
		})
	}
}

func TestOpenNotZip(t *testing.T) {
	_, err := Open([]byte("definitely not a zip"))
	if !errors.Is(err, errors.ErrCodeInvalidArchive) {
		t.Errorf("Open() error = %v, want %s", err, errors.ErrCodeInvalidArchive)
	}
}

func TestOpenSkipsUnusableMembers(t *testing.T) {
	data := buildZip(t, map[string][]byte{
		MetadataMember:    []byte(`{}`),
		BinaryMember:      {0, 0, 0, 0},
		"../escape.json":  []byte(`{}`),
		"Thumbnail..png":  {0x89, 'P', 'N', 'G'},
		"/abs/State.json": []byte(`{}`),
		"Audio/clip.ogg":  []byte("ogg"),
	})

	a, err := Open(data)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	want := []string{"Audio/clip.ogg", BinaryMember, MetadataMember}
	if diff := cmp.Diff(want, a.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	skipped := append([]string(nil), a.Skipped...)
	sort.Strings(skipped)
	wantSkipped := []string{"../escape.json", "/abs/State.json", "Thumbnail..png"}
	if diff := cmp.Diff(wantSkipped, skipped); diff != "" {
		t.Errorf("Skipped mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenUnreadableRequiredMember(t *testing.T) {
	payload := bytes.Repeat([]byte{1, 2, 3, 4}, 64)
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range map[string][]byte{MetadataMember: []byte(`{}`), BinaryMember: payload} {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		if err != nil {
			t.Fatalf("CreateHeader(%q): %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("Write(%q): %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Flip a stored byte so the member fails its checksum.
	data := buf.Bytes()
	i := bytes.Index(data, payload)
	if i < 0 {
		t.Fatal("stored payload not found")
	}
	data[i] ^= 0xFF

	if _, err := Open(data); !errors.Is(err, errors.ErrCodeInvalidArchive) {
		t.Errorf("Open() error = %v, want %s", err, errors.ErrCodeInvalidArchive)
	}
}
