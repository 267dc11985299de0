package uflp

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/mat"
)

const (
	recordStart = "=== Sample (Start) ==="
	recordEnd   = "=== Sample (End) ==="

	labelClientX   = "Feature (Client_location x axis):"
	labelClientY   = "Feature (Client_location y axis):"
	labelFacilityX = "Feature (Facility_location x axis):"
	labelFacilityY = "Feature (Facility_location y axis):"
	labelOpenCost  = "Feature (facility open cost):"
	labelOpen      = "Response (Open_facility):"
	labelServe     = "Response (serve):"

	listSep = ", "
	// featureDigits matches the default precision of a C++ output stream,
	// the format existing consumers of the dataset parse.
	featureDigits = 6
)

type number interface {
	constraints.Integer | constraints.Float
}

func formatList[T number](vals []T, format func(T) string) string {
	s := new(strings.Builder)
	for i, v := range vals {
		if i > 0 {
			s.WriteString(listSep)
		}
		s.WriteString(format(v))
	}
	return s.String()
}

func formatReal(v float64) string {
	return strconv.FormatFloat(v, 'g', featureDigits, 64)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}

// FormatRecord renders one dataset block, delimiters included.
func FormatRecord(sample *Sample) ([]byte, error) {
	if sample == nil || sample.Instance == nil || sample.Decision == nil {
		return nil, fmt.Errorf("%w: incomplete sample", ErrInvalidParameter)
	}
	inst, dec := sample.Instance, sample.Decision
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	numClients, numFacilities := inst.NumClients(), inst.NumFacilities()
	if len(dec.OpenFacility) != numFacilities || len(dec.ServeClient) != numClients {
		return nil, fmt.Errorf("%w: decision is %dx%d, instance has %d clients and %d facilities",
			ErrMalformedDecision, len(dec.ServeClient), len(dec.OpenFacility), numClients, numFacilities)
	}
	for c, row := range dec.ServeClient {
		if len(row) != numFacilities {
			return nil, fmt.Errorf("%w: serve row %d has %d entries", ErrMalformedDecision, c, len(row))
		}
	}

	xs := func(locs []Location) []float64 {
		out := make([]float64, len(locs))
		for i, l := range locs {
			out[i] = l.X
		}
		return out
	}
	ys := func(locs []Location) []float64 {
		out := make([]float64, len(locs))
		for i, l := range locs {
			out[i] = l.Y
		}
		return out
	}

	b := new(bytes.Buffer)
	b.WriteString(recordStart + "\n")
	fmt.Fprintf(b, "%s %s\n", labelClientX, formatList(xs(inst.Clients), formatReal))
	fmt.Fprintf(b, "%s %s\n", labelClientY, formatList(ys(inst.Clients), formatReal))
	fmt.Fprintf(b, "%s %s\n", labelFacilityX, formatList(xs(inst.Facilities), formatReal))
	fmt.Fprintf(b, "%s %s\n", labelFacilityY, formatList(ys(inst.Facilities), formatReal))
	fmt.Fprintf(b, "%s %s\n", labelOpenCost, formatList(mat.Col(nil, 0, inst.OpenCosts), formatReal))
	fmt.Fprintf(b, "%s %s\n", labelOpen, formatList(dec.OpenFacility, formatInt))
	b.WriteString(labelServe + " \n")
	for _, row := range dec.ServeClient {
		b.WriteString(formatList(row, formatInt))
		b.WriteByte('\n')
	}
	b.WriteString(recordEnd + "\n")
	return b.Bytes(), nil
}

// DatasetWriter appends records to a dataset file. Each record reaches the
// file in a single write, so a failed write never leaves a Start delimiter
// without its End.
type DatasetWriter struct {
	path    string
	file    *os.File
	records int
}

// OpenDataset opens path for appending, creating it if needed. Existing
// records are never truncated.
func OpenDataset(path string) (*DatasetWriter, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &DatasetWriter{path: path, file: file}, nil
}

func (w *DatasetWriter) Write(sample *Sample) error {
	rec, err := FormatRecord(sample)
	if err != nil {
		return err
	}
	return w.writeRecord(rec)
}

func (w *DatasetWriter) writeRecord(rec []byte) error {
	n, err := w.file.Write(rec)
	if err != nil {
		return fmt.Errorf("append to %s: %w", w.path, err)
	}
	w.records++
	recordBytes.Add(float64(n))
	return nil
}

// Records returns the number of records appended through w.
func (w *DatasetWriter) Records() int {
	return w.records
}

func (w *DatasetWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// AppendSample opens path, appends one record and closes it again.
func AppendSample(path string, sample *Sample) (err error) {
	rec, err := FormatRecord(sample)
	if err != nil {
		return err
	}
	w, err := OpenDataset(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	return w.writeRecord(rec)
}
