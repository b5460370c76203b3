package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteJSON writes the messages as one indented JSON array.
func WriteJSON(w io.Writer, messages []ChatMessage) error {
	if messages == nil {
		messages = []ChatMessage{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(messages); err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}
	return nil
}

// WriteJSONL writes one vector record per line.
func WriteJSONL(w io.Writer, messages []ChatMessage) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	for _, msg := range messages {
		if err := enc.Encode(msg.ToVectorRecord()); err != nil {
			return fmt.Errorf("failed to encode record for message %d: %w", msg.ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// WriteFiles writes both formats next to each other in dir:
// <base>.json with the full array and <base>.jsonl with vector records.
func WriteFiles(dir, base string, messages []ChatMessage) (jsonPath, jsonlPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	jsonPath = filepath.Join(dir, base+".json")
	jsonlPath = filepath.Join(dir, base+".jsonl")

	jsonFile, err := os.Create(jsonPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create %s: %w", jsonPath, err)
	}
	defer func() {
		if closeErr := jsonFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if err := WriteJSON(jsonFile, messages); err != nil {
		return "", "", err
	}

	jsonlFile, err := os.Create(jsonlPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create %s: %w", jsonlPath, err)
	}
	defer func() {
		if closeErr := jsonlFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if err := WriteJSONL(jsonlFile, messages); err != nil {
		return "", "", err
	}

	return jsonPath, jsonlPath, nil
}
