package muhimbi

import (
	"fmt"
	"os"
)

// Result is a successfully processed document.
type Result struct {
	Content       []byte
	BaseFileName  string
	ResultCode    string
	ResultDetails string
}

// Save writes the processed document to path, replacing any existing file.
// Parent directories are not created.
func (r *Result) Save(path string) error {
	if err := os.WriteFile(path, r.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write processed file: %w", err)
	}
	return nil
}
