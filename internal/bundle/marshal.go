package bundle

import (
	"encoding/json"
	"fmt"
	"os"
)

const filePerm = 0o644

// Marshal serializes a Bundle back to the wire format the loader accepts.
func Marshal(b *Bundle) ([]byte, error) {
	env := envelope{
		FormatVersion: FormatVersion,
		Bundle:        *b,
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling bundle %s@%s: %w", b.AppID, b.Version, err)
	}

	return data, nil
}

// WriteFile serializes a Bundle to the given path.
func WriteFile(b *Bundle, path string) error {
	data, err := Marshal(b)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("writing bundle file %s: %w", path, err)
	}

	return nil
}
