package utils

import (
	"encoding/binary"
	"os"
	"path"
	"testing"
)

func TestULongToBytes(t *testing.T) {
	numInt := uint64(42)
	b := ULongToBytes(numInt)
	if binary.BigEndian.Uint64(b) != numInt {
		t.Fatal("Conversion to bytes looks wrong!")
	}
}

func TestWriteFileRefusesOverwrite(t *testing.T) {
	file := path.Join(t.TempDir(), "out")
	if err := WriteFile(file, []byte("a"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(file, []byte("b"), 0600); err == nil {
		t.Fatal("Overwrote an existing file")
	}
	buf, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != "a" {
		t.Fatal("Original file content lost")
	}
}

func TestResolvePath(t *testing.T) {
	got := ResolvePath("sign.priv", "/etc/treeserver/config.toml")
	if got != "/etc/treeserver/sign.priv" {
		t.Fatal("Unexpected resolved path:", got)
	}
	got = ResolvePath("/abs/sign.priv", "/etc/treeserver/config.toml")
	if got != "/abs/sign.priv" {
		t.Fatal("Absolute path should be kept:", got)
	}
}
