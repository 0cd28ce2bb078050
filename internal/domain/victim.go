package domain

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
)

// Sex is the normalized sex of a victim.
type Sex string

const (
	SexMale    Sex = "m"
	SexFemale  Sex = "f"
	SexUnknown Sex = "unknown"
)

// ParseSex maps the spellings seen upstream onto m, f or unknown.
func ParseSex(s string) Sex {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return SexMale
	case "f", "female":
		return SexFemale
	default:
		return SexUnknown
	}
}

// Victim is one row of the registry. Nil pointers mark values that were
// absent or failed to coerce.
type Victim struct {
	ID          *int64   `csv:"id,omitempty" json:"id"`
	EnglishName *string  `csv:"english_name,omitempty" json:"english_name"`
	ArabicName  *string  `csv:"arabic_name,omitempty" json:"arabic_name"`
	Age         *float64 `csv:"age,omitempty" json:"age"`
	Sex         Sex      `csv:"sex" json:"sex"`
	DOB         *Date    `csv:"dob,omitempty" json:"dob"`
	Source      string   `csv:"source,omitempty" json:"source,omitempty"`
}

// ParseReport describes how a registry payload was read.
type ParseReport struct {
	// Columns maps each resolved canonical field to the source column used.
	Columns map[string]string
	// Skipped counts malformed lines that were dropped.
	Skipped int
}

// maxRegistryLine bounds a single registry line.
const maxRegistryLine = 1 << 20

// ParseVictims reads a comma-separated registry, resolving columns through
// aliases. Only a missing id column fails the whole payload; malformed lines
// are skipped and unparsable values become nil.
//
// Each physical line is one record. A quoted field never spans lines, so an
// unterminated quote costs only the line it appears on.
func ParseVictims(r io.Reader, aliases Aliases) ([]Victim, ParseReport, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRegistryLine)

	var header []string
	for header == nil && sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		h, err := splitLine(line)
		if err != nil {
			return nil, ParseReport{}, &ParseError{Format: "csv", Err: fmt.Errorf("header: %w", err)}
		}
		header = h
	}
	if err := sc.Err(); err != nil {
		return nil, ParseReport{}, &ParseError{Format: "csv", Err: err}
	}
	if header == nil {
		return nil, ParseReport{}, &ParseError{Format: "csv", Err: errors.New("empty payload")}
	}

	cols := aliases.Resolve(header)
	report := ParseReport{Columns: make(map[string]string, len(cols))}
	for field, i := range cols {
		report.Columns[field] = normalizeHeader(header[i])
	}
	if _, ok := cols[FieldID]; !ok {
		return nil, report, &ParseError{Format: "csv", Err: fmt.Errorf("no id column among %v", header)}
	}

	var victims []Victim
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := splitLine(line)
		if err != nil || len(rec) > len(header) {
			report.Skipped++
			continue
		}
		victims = append(victims, victimFromRecord(rec, cols))
	}
	if err := sc.Err(); err != nil {
		return nil, report, &ParseError{Format: "csv", Err: err}
	}
	return victims, report, nil
}

// splitLine parses one line into fields. Bare quotes inside unquoted fields
// are tolerated; broken quoting of a quoted field is an error.
func splitLine(line string) ([]string, error) {
	rec, err := readOne(line, false)
	if errors.Is(err, csv.ErrBareQuote) {
		rec, err = readOne(line, true)
	}
	return rec, err
}

func readOne(line string, lazy bool) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(line))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = lazy
	rec, err := cr.Read()
	if err != nil {
		return nil, err
	}
	if _, err := cr.Read(); !errors.Is(err, io.EOF) {
		return nil, errors.New("more than one record on a line")
	}
	return rec, nil
}

func victimFromRecord(rec []string, cols map[string]int) Victim {
	get := func(field string) (string, bool) {
		i, ok := cols[field]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}

	v := Victim{Sex: SexUnknown}
	if s, ok := get(FieldID); ok {
		v.ID = parseIDOrNil(s)
	}
	if s, ok := get(FieldEnglishName); ok {
		v.EnglishName = textOrNil(s)
	}
	if s, ok := get(FieldArabicName); ok {
		v.ArabicName = textOrNil(s)
	}
	if s, ok := get(FieldAge); ok {
		v.Age = numberOrNil(s)
	}
	if s, ok := get(FieldSex); ok {
		v.Sex = ParseSex(s)
	}
	if s, ok := get(FieldDOB); ok {
		v.DOB = dateOrNil(s)
	}
	if s, ok := get(FieldSource); ok {
		v.Source = s
	}
	return v
}

func parseIDOrNil(s string) *int64 {
	c, err := ParseCount(s)
	if err != nil {
		return nil
	}
	id := int64(c)
	return &id
}

func textOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func numberOrNil(s string) *float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func dateOrNil(s string) *Date {
	if s == "" {
		return nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return nil
	}
	return &d
}

// EncodeVictims writes victims using the canonical field names as the header.
// The output reads back through ParseVictims with DefaultAliases.
func EncodeVictims(w io.Writer, victims []Victim) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(Victim{}); err != nil {
		return fmt.Errorf("encode victim header: %w", err)
	}
	for i := range victims {
		if err := enc.Encode(victims[i]); err != nil {
			return fmt.Errorf("encode victim %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
