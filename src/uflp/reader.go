package uflp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const maxLineSize = 16 << 20

type recordScanner struct {
	scanner *bufio.Scanner
	line    int
	record  int
}

func (rs *recordScanner) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: record %d, line %d: %s",
		ErrMalformedRecord, rs.record, rs.line, fmt.Sprintf(format, args...))
}

func (rs *recordScanner) next() (string, bool) {
	if !rs.scanner.Scan() {
		return "", false
	}
	rs.line++
	return strings.TrimRight(rs.scanner.Text(), " \r"), true
}

func parseList[T number](s string, parse func(string) (T, error)) ([]T, error) {
	fields := strings.Split(s, ",")
	vals := make([]T, len(fields))
	for i, tok := range fields {
		v, err := parse(strings.TrimSpace(tok))
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func parseReal(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseBinary(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v != 0 && v != 1 {
		return 0, fmt.Errorf("value %d is not binary", v)
	}
	return v, nil
}

func (rs *recordScanner) parseLabeled(label string) (string, error) {
	line, ok := rs.next()
	if !ok {
		return "", rs.errorf("unexpected end of input, want %q", label)
	}
	rest, found := strings.CutPrefix(line, label)
	if !found {
		return "", rs.errorf("want %q, got %q", label, line)
	}
	return strings.TrimSpace(rest), nil
}

func (rs *recordScanner) parseReals(label string, want int) ([]float64, error) {
	rest, err := rs.parseLabeled(label)
	if err != nil {
		return nil, err
	}
	vals, err := parseList(rest, parseReal)
	if err != nil {
		return nil, rs.errorf("%s %v", label, err)
	}
	if want >= 0 && len(vals) != want {
		return nil, rs.errorf("%s has %d values, want %d", label, len(vals), want)
	}
	return vals, nil
}

func (rs *recordScanner) parseBinaries(want int) ([]int, error) {
	line, ok := rs.next()
	if !ok {
		return nil, rs.errorf("unexpected end of input in serve block")
	}
	vals, err := parseList(line, parseBinary)
	if err != nil {
		return nil, rs.errorf("serve row: %v", err)
	}
	if len(vals) != want {
		return nil, rs.errorf("serve row has %d values, want %d", len(vals), want)
	}
	return vals, nil
}

func locations(xs, ys []float64) []Location {
	locs := make([]Location, len(xs))
	for i := range xs {
		locs[i] = Location{X: xs[i], Y: ys[i]}
	}
	return locs
}

// parseRecord reads the block following a Start delimiter.
func (rs *recordScanner) parseRecord() (*Sample, error) {
	clientX, err := rs.parseReals(labelClientX, -1)
	if err != nil {
		return nil, err
	}
	numClients := len(clientX)
	clientY, err := rs.parseReals(labelClientY, numClients)
	if err != nil {
		return nil, err
	}
	facilityX, err := rs.parseReals(labelFacilityX, -1)
	if err != nil {
		return nil, err
	}
	numFacilities := len(facilityX)
	facilityY, err := rs.parseReals(labelFacilityY, numFacilities)
	if err != nil {
		return nil, err
	}
	costs, err := rs.parseReals(labelOpenCost, numFacilities)
	if err != nil {
		return nil, err
	}

	rest, err := rs.parseLabeled(labelOpen)
	if err != nil {
		return nil, err
	}
	open, err := parseList(rest, parseBinary)
	if err != nil {
		return nil, rs.errorf("%s %v", labelOpen, err)
	}
	if len(open) != numFacilities {
		return nil, rs.errorf("%s has %d values, want %d", labelOpen, len(open), numFacilities)
	}
	if rest, err = rs.parseLabeled(labelServe); err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, rs.errorf("unexpected values after %q", labelServe)
	}
	serve := make([][]int, numClients)
	for c := range serve {
		if serve[c], err = rs.parseBinaries(numFacilities); err != nil {
			return nil, err
		}
	}
	if line, ok := rs.next(); !ok || line != recordEnd {
		return nil, rs.errorf("want %q, got %q", recordEnd, line)
	}

	clients := locations(clientX, clientY)
	facilities := locations(facilityX, facilityY)
	inst := &Instance{
		Clients:    clients,
		Facilities: facilities,
		OpenCosts:  mat.NewVecDense(numFacilities, costs),
		Distance:   DistanceMatrix(clients, facilities),
	}
	if err := inst.Validate(); err != nil {
		return nil, rs.errorf("%v", err)
	}
	dec := &Decision{OpenFacility: open, ServeClient: serve}
	form, err := inst.Formulation()
	if err != nil {
		return nil, rs.errorf("%v", err)
	}
	dec.Objective = form.Evaluate(dec)
	return &Sample{Instance: inst, Decision: dec}, nil
}

// ReadDataset parses every record of r. Blank lines between records are
// ignored; anything else outside a record is an error.
func ReadDataset(r io.Reader) ([]*Sample, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	rs := &recordScanner{scanner: scanner}

	samples := make([]*Sample, 0)
	for {
		line, ok := rs.next()
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		if line != recordStart {
			return nil, rs.errorf("want %q, got %q", recordStart, line)
		}
		sample, err := rs.parseRecord()
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
		rs.record++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// LoadDataset reads the dataset file at path.
func LoadDataset(path string) ([]*Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadDataset(file)
}
