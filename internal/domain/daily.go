package domain

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/jszwec/csvutil"
)

// DailyRecord is one row of the daily aggregate series.
type DailyRecord struct {
	ReportDate   Date   `csv:"report_date" json:"report_date"`
	ReportSource string `csv:"report_source,omitempty" json:"report_source,omitempty"`
	ReportPeriod *Count `csv:"report_period,omitempty" json:"report_period,omitempty"`

	MassacresCum      *Count `csv:"massacres_cum,omitempty" json:"massacres_cum,omitempty"`
	Killed            *Count `csv:"killed,omitempty" json:"killed,omitempty"`
	KilledCum         *Count `csv:"killed_cum,omitempty" json:"killed_cum,omitempty"`
	KilledChildrenCum *Count `csv:"killed_children_cum,omitempty" json:"killed_children_cum,omitempty"`
	KilledWomenCum    *Count `csv:"killed_women_cum,omitempty" json:"killed_women_cum,omitempty"`
	Injured           *Count `csv:"injured,omitempty" json:"injured,omitempty"`
	InjuredCum        *Count `csv:"injured_cum,omitempty" json:"injured_cum,omitempty"`
	CivdefKilledCum   *Count `csv:"civdef_killed_cum,omitempty" json:"civdef_killed_cum,omitempty"`
	MedKilledCum      *Count `csv:"med_killed_cum,omitempty" json:"med_killed_cum,omitempty"`
	PressKilledCum    *Count `csv:"press_killed_cum,omitempty" json:"press_killed_cum,omitempty"`

	// Publisher extrapolations filling gaps between official reports.
	ExtMassacresCum      *Count `csv:"ext_massacres_cum,omitempty" json:"ext_massacres_cum,omitempty"`
	ExtKilled            *Count `csv:"ext_killed,omitempty" json:"ext_killed,omitempty"`
	ExtKilledCum         *Count `csv:"ext_killed_cum,omitempty" json:"ext_killed_cum,omitempty"`
	ExtKilledChildrenCum *Count `csv:"ext_killed_children_cum,omitempty" json:"ext_killed_children_cum,omitempty"`
	ExtKilledWomenCum    *Count `csv:"ext_killed_women_cum,omitempty" json:"ext_killed_women_cum,omitempty"`
	ExtCivdefKilledCum   *Count `csv:"ext_civdef_killed_cum,omitempty" json:"ext_civdef_killed_cum,omitempty"`
	ExtMedKilledCum      *Count `csv:"ext_med_killed_cum,omitempty" json:"ext_med_killed_cum,omitempty"`
	ExtPressKilledCum    *Count `csv:"ext_press_killed_cum,omitempty" json:"ext_press_killed_cum,omitempty"`
	ExtInjured           *Count `csv:"ext_injured,omitempty" json:"ext_injured,omitempty"`
	ExtInjuredCum        *Count `csv:"ext_injured_cum,omitempty" json:"ext_injured_cum,omitempty"`
}

// reportDateAliases lists the names the date field has used in the JSON
// mirror of the daily series.
var reportDateAliases = []string{"report_date", "date", "Date"}

// NormalizeDaily sorts records ascending by report date and drops duplicate
// dates, keeping the last occurrence in input order. The input slice is not
// modified.
func NormalizeDaily(records []DailyRecord) []DailyRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b DailyRecord) int {
		return a.ReportDate.Compare(b.ReportDate.Time)
	})

	deduped := out[:0]
	for i, rec := range out {
		if i+1 < len(out) && out[i+1].ReportDate.Equal(rec.ReportDate) {
			continue
		}
		deduped = append(deduped, rec)
	}
	return deduped
}

// DecodeDaily parses a comma-separated daily series. The header must carry a
// report_date column; columns the record does not know are ignored.
func DecodeDaily(r io.Reader) ([]DailyRecord, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Format: "csv", Err: errors.New("empty payload")}
		}
		return nil, &ParseError{Format: "csv", Err: err}
	}
	if !slices.Contains(dec.Header(), "report_date") {
		return nil, &ParseError{Format: "csv", Err: errors.New("missing report_date column")}
	}

	var records []DailyRecord
	for {
		var rec DailyRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &ParseError{Format: "csv", Err: err}
		}
		if rec.ReportDate.IsZero() {
			return nil, &ParseError{Format: "csv", Err: fmt.Errorf("row %d: empty report_date", len(records)+1)}
		}
		records = append(records, rec)
	}
	return records, nil
}

// DecodeDailyJSON parses the JSON mirror: an array of objects whose date
// field may appear under any of the known aliases.
func DecodeDailyJSON(data []byte) ([]DailyRecord, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Format: "json", Err: err}
	}

	records := make([]DailyRecord, 0, len(raw))
	for i, obj := range raw {
		if err := canonicalizeDateKey(obj); err != nil {
			return nil, &ParseError{Format: "json", Err: fmt.Errorf("element %d: %w", i, err)}
		}
		b, err := json.Marshal(obj)
		if err != nil {
			return nil, &ParseError{Format: "json", Err: err}
		}
		var rec DailyRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, &ParseError{Format: "json", Err: fmt.Errorf("element %d: %w", i, err)}
		}
		records = append(records, rec)
	}
	return records, nil
}

func canonicalizeDateKey(obj map[string]json.RawMessage) error {
	for _, alias := range reportDateAliases {
		v, ok := obj[alias]
		if !ok || bytes.Equal(v, []byte("null")) {
			continue
		}
		delete(obj, alias)
		obj["report_date"] = v
		return nil
	}
	return errors.New("missing report date")
}

// EncodeDaily writes records in the canonical cache format. The header is
// written even when records is empty.
func EncodeDaily(w io.Writer, records []DailyRecord) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(DailyRecord{}); err != nil {
		return fmt.Errorf("encode daily header: %w", err)
	}
	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return fmt.Errorf("encode daily record %s: %w", records[i].ReportDate, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary holds the headline figures of the most recent report.
type Summary struct {
	ReportDate        Date   `json:"report_date"`
	Killed            *Count `json:"killed,omitempty"`
	KilledChildren    *Count `json:"killed_children,omitempty"`
	KilledWomen       *Count `json:"killed_women,omitempty"`
	Injured           *Count `json:"injured,omitempty"`
	KilledLastReport  *Count `json:"killed_last_report,omitempty"`
	InjuredLastReport *Count `json:"injured_last_report,omitempty"`
}

// LatestSummary builds the headline figures from the last record of a
// normalized table, preferring extrapolated counters when present. It
// returns false for an empty table.
func LatestSummary(records []DailyRecord) (Summary, bool) {
	if len(records) == 0 {
		return Summary{}, false
	}
	last := records[len(records)-1]
	return Summary{
		ReportDate:        last.ReportDate,
		Killed:            firstCount(last.ExtKilledCum, last.KilledCum),
		KilledChildren:    firstCount(last.ExtKilledChildrenCum, last.KilledChildrenCum),
		KilledWomen:       firstCount(last.ExtKilledWomenCum, last.KilledWomenCum),
		Injured:           firstCount(last.ExtInjuredCum, last.InjuredCum),
		KilledLastReport:  firstCount(last.ExtKilled, last.Killed),
		InjuredLastReport: firstCount(last.ExtInjured, last.Injured),
	}, true
}

func firstCount(candidates ...*Count) *Count {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}
