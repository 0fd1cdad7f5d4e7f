package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WAVBytes builds a minimal mono 44.1kHz 16-bit PCM WAV container around
// payloadBytes of silence. The result always clears the 44-byte viability
// floor the resolver enforces.
func WAVBytes(payloadBytes int) []byte {
	if payloadBytes < 4 {
		payloadBytes = 4
	}
	data := make([]byte, 44+payloadBytes)
	copy(data[0:4], "RIFF")
	binary.LittleEndian.PutUint32(data[4:8], uint32(36+payloadBytes))
	copy(data[8:12], "WAVE")
	copy(data[12:16], "fmt ")
	binary.LittleEndian.PutUint32(data[16:20], 16)
	binary.LittleEndian.PutUint16(data[20:22], 1)     // PCM
	binary.LittleEndian.PutUint16(data[22:24], 1)     // mono
	binary.LittleEndian.PutUint32(data[24:28], 44100) // sample rate
	binary.LittleEndian.PutUint32(data[28:32], 44100*2)
	binary.LittleEndian.PutUint16(data[32:34], 2)
	binary.LittleEndian.PutUint16(data[34:36], 16) // bit depth
	copy(data[36:40], "data")
	binary.LittleEndian.PutUint32(data[40:44], uint32(payloadBytes))
	return data
}

// WriteWAV writes a minimal WAV fixture at path.
func WriteWAV(t testing.TB, path string, payloadBytes int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, WAVBytes(payloadBytes), 0o644); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}
