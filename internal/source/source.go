// Package source decodes raw entity records from JSON documents.
//
// Load works on a document already in memory and locates the record array
// with jsonparser; Stream walks an io.Reader token by token and decodes one
// record at a time. Both yield records lazily and in document order.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/ppiankov/entagg/internal/model"
)

// ErrRecordsPath is returned when the records path does not lead to an array
var ErrRecordsPath = errors.New("records path not found")

// Records is a lazily produced sequence of raw records.
// A non-nil error ends the sequence.
type Records = iter.Seq2[model.RawRecord, error]

// Load yields the records of an in-memory JSON document. recordsPath is a
// dot-separated list of object keys leading to the record array; empty
// means the document root.
func Load(data []byte, recordsPath string) Records {
	return func(yield func(model.RawRecord, error) bool) {
		keys := SplitPath(recordsPath)

		arr, typ, _, err := jsonparser.Get(data, keys...)
		if err != nil {
			if errors.Is(err, jsonparser.KeyPathNotFoundError) {
				err = ErrRecordsPath
			}
			yield(model.RawRecord{}, fmt.Errorf("locate records at %q: %w", recordsPath, err))
			return
		}
		if typ != jsonparser.Array {
			yield(model.RawRecord{}, fmt.Errorf("locate records at %q: %w: found %s, not array", recordsPath, ErrRecordsPath, typ))
			return
		}

		index := 0
		stopped := false
		_, err = jsonparser.ArrayEach(arr, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
			if stopped {
				return
			}
			if dataType != jsonparser.Object {
				stopped = true
				yield(model.RawRecord{}, fmt.Errorf("record %d: expected object, found %s", index, dataType))
				return
			}
			rec, decErr := decodeRecord(value)
			if decErr != nil {
				stopped = true
				yield(model.RawRecord{}, fmt.Errorf("record %d: %w", index, decErr))
				return
			}
			index++
			if !yield(rec, nil) {
				stopped = true
			}
		})
		if err != nil && !stopped {
			yield(model.RawRecord{}, fmt.Errorf("iterate records: %w", err))
		}
	}
}

// Stream yields the records of the JSON document read from r without
// buffering the whole document.
func Stream(r io.Reader, recordsPath string) Records {
	return func(yield func(model.RawRecord, error) bool) {
		dec := json.NewDecoder(r)
		dec.UseNumber()

		if err := descend(dec, SplitPath(recordsPath)); err != nil {
			yield(model.RawRecord{}, fmt.Errorf("locate records at %q: %w", recordsPath, err))
			return
		}

		if err := expectDelim(dec, '['); err != nil {
			yield(model.RawRecord{}, fmt.Errorf("locate records at %q: %w: %v", recordsPath, ErrRecordsPath, err))
			return
		}

		for index := 0; dec.More(); index++ {
			var rec model.RawRecord
			if err := dec.Decode(&rec); err != nil {
				yield(model.RawRecord{}, fmt.Errorf("record %d: %w", index, err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}

		if err := expectDelim(dec, ']'); err != nil {
			yield(model.RawRecord{}, fmt.Errorf("iterate records: %w", err))
		}
	}
}

// FromSlice yields records from an in-memory slice
func FromSlice(records []model.RawRecord) Records {
	return func(yield func(model.RawRecord, error) bool) {
		for _, rec := range records {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// SplitPath turns "data.entities" into its keys. A trailing "item"
// segment, the array-element prefix of streaming JSON parsers, is dropped,
// so "item" and "" both address the root array.
func SplitPath(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), ".")
	if path == "" {
		return nil
	}
	keys := strings.Split(path, ".")
	if keys[len(keys)-1] == "item" {
		keys = keys[:len(keys)-1]
	}
	if len(keys) == 0 {
		return nil
	}
	return keys
}

func decodeRecord(data []byte) (model.RawRecord, error) {
	var rec model.RawRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return model.RawRecord{}, err
	}
	return rec, nil
}

// descend advances dec to the value found under keys
func descend(dec *json.Decoder, keys []string) error {
	for _, key := range keys {
		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("%w: key %q: %v", ErrRecordsPath, key, err)
		}
		found := false
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			if name, _ := tok.(string); name == key {
				found = true
				break
			}
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return err
			}
		}
		if !found {
			return fmt.Errorf("%w: key %q", ErrRecordsPath, key)
		}
	}
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, found %v", want, tok)
	}
	return nil
}
