package vectorstore

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
)

const (
	IndexFile    = "index.bin"
	MetadataFile = "metadata.jsonl"

	indexMagic   = "DDVI"
	indexVersion = uint32(1)
)

// writeAtomic streams into a temp file in dir and renames it over name.
func writeAtomic(dir, name string, write func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(dir, "."+name+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}

// Index layout: magic[4] version:u32 dim:u32 count:u64 then count*dim
// little-endian float32 values.
func encodeIndex(w io.Writer, dim int, vectors []float32) error {
	if _, err := io.WriteString(w, indexMagic); err != nil {
		return err
	}
	count := 0
	if dim > 0 {
		count = len(vectors) / dim
	}
	header := []any{indexVersion, uint32(dim), uint64(count)}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	buf := make([]byte, 4)
	for _, f := range vectors {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func decodeIndex(r io.Reader) (int, []float32, error) {
	magic := make([]byte, len(indexMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return 0, nil, fmt.Errorf("%w: read magic: %v", ErrCorruptIndex, err)
	}
	if string(magic) != indexMagic {
		return 0, nil, fmt.Errorf("%w: bad magic %q", ErrCorruptIndex, magic)
	}
	var (
		version uint32
		dim     uint32
		count   uint64
	)
	for _, v := range []any{&version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return 0, nil, fmt.Errorf("%w: read header: %v", ErrCorruptIndex, err)
		}
	}
	if version != indexVersion {
		return 0, nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, version)
	}
	vectors := make([]float32, int(count)*int(dim))
	buf := make([]byte, 4)
	for i := range vectors {
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, nil, fmt.Errorf("%w: truncated vectors: %v", ErrCorruptIndex, err)
		}
		vectors[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
	}
	return int(dim), vectors, nil
}

func encodeMetadata(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func decodeMetadata(r io.Reader) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("%w: metadata line %d: %v", ErrCorruptIndex, line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	return out, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
