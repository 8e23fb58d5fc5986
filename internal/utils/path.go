package utils

import (
	"fmt"
	"path"
	"strings"
)

const processedPrefix = "processed/"

// ProcessedKey derives the object key of the OCR output from the raw object
// key: "raw/2024/scan.pdf" becomes "processed/2024/scan.pdf". The service's
// base file name, when known, replaces the original file name.
func ProcessedKey(rawKey string, baseFileName string) (string, error) {
	rawKey = strings.TrimPrefix(strings.TrimSpace(rawKey), "/")
	if rawKey == "" || strings.HasSuffix(rawKey, "/") {
		return "", fmt.Errorf("unexpected S3RawKey format: %q", rawKey)
	}

	dir, file := path.Split(strings.TrimPrefix(rawKey, "raw/"))
	if base := strings.TrimSpace(baseFileName); base != "" && !strings.ContainsAny(base, `/\`) {
		file = strings.TrimSuffix(base, path.Ext(base)) + ".pdf"
	}
	return processedPrefix + dir + file, nil
}
