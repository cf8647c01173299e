package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

func writeJSONLine(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" {
		return nil, withCode(exitUsage, fmt.Errorf("--input is required"))
	}
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, withCode(exitUsage, fmt.Errorf("read stdin: %w", err))
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("read %s: %w", path, err))
	}
	return b, nil
}

func readJSONInput(stdin io.Reader, path string, out any) error {
	b, err := readInput(stdin, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return withCode(exitValidation, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
