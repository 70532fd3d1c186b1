package fileutil

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"io"
	"os"
)

// SHA1Base64 computes the base64-encoded SHA-1 digest of a file's contents.
// This is the checksum format the export writes into its fileChecksum column.
func SHA1Base64(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha1.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(hasher.Sum(nil)), nil
}

// SameContent reports whether two files hold identical bytes. Sizes are
// compared first; digests are only computed when the sizes agree.
func SameContent(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	digestA, err := rawSHA1(a)
	if err != nil {
		return false, err
	}
	digestB, err := rawSHA1(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(digestA, digestB), nil
}

func rawSHA1(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	hasher := sha1.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return nil, err
	}
	return hasher.Sum(nil), nil
}
