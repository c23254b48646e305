package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ahrav/go-instructgen/internal/domain"
)

// ErrMalformedRecord indicates a line that is not a valid sample.
var ErrMalformedRecord = errors.New("malformed dataset record")

// maxRecordSize bounds a single line.
const maxRecordSize = 16 << 20

// Scan streams the records of the dataset at path in file order. Each line must
// decode strictly into a valid Sample. Scanning stops at the first error
// returned by fn.
func Scan(path string, fn func(line int, s domain.Sample) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ScanReader(f, fn)
}

// ScanReader is Scan over an arbitrary reader.
func ScanReader(r io.Reader, fn func(line int, s domain.Sample) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			return fmt.Errorf("%w: line %d is empty", ErrMalformedRecord, line)
		}

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		var s domain.Sample
		if err := dec.Decode(&s); err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)
		}
		if dec.More() {
			return fmt.Errorf("%w: line %d has trailing data", ErrMalformedRecord, line)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)
		}

		if err := fn(line, s); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	return nil
}

// ReadAll returns every record of the dataset at path in file order.
func ReadAll(path string) ([]domain.Sample, error) {
	var out []domain.Sample
	err := Scan(path, func(_ int, s domain.Sample) error {
		out = append(out, s)
		return nil
	})
	return out, err
}

// Summary describes a dataset file.
type Summary struct {
	Records    int            `json:"records"`
	ByCategory map[string]int `json:"by_category"`
}

// Verify scans the dataset and tallies records per category.
func Verify(path string) (Summary, error) {
	sum := Summary{ByCategory: make(map[string]int)}
	err := Scan(path, func(_ int, s domain.Sample) error {
		sum.Records++
		sum.ByCategory[s.Category]++
		return nil
	})
	return sum, err
}
