package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	wizard "github.com/WhisperLooms/grant-harness"
	"github.com/WhisperLooms/grant-harness/forms/igp"
)

// stepView is the printable state of the visible step.
type stepView struct {
	Wizard string            `json:"wizard"`
	Step   int               `json:"step"`
	Count  int               `json:"count"`
	Name   string            `json:"name"`
	Title  string            `json:"title"`
	Path   string            `json:"path,omitempty"`
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (s *session) view() stepView {
	step := s.step()
	result := s.gate.Result()
	return stepView{
		Wizard: s.seq.Name(),
		Step:   step.ID,
		Count:  s.seq.StepCount(),
		Name:   step.Name,
		Title:  step.Title,
		Path:   s.path,
		Valid:  result.Valid,
		Errors: result.Errors,
	}
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func writeStep(w io.Writer, view stepView) {
	fmt.Fprintf(w, "%s: step %d of %d, %s\n", view.Wizard, view.Step, view.Count, view.Title)
	if view.Path != "" {
		fmt.Fprintf(w, "  route: %s\n", view.Path)
	}
	if view.Valid {
		fmt.Fprintln(w, "  status: valid")
		return
	}
	fmt.Fprintln(w, "  status: incomplete")
	writeErrors(w, view.Errors)
}

func writeErrors(w io.Writer, errs map[string]string) {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(w, "  - %s: %s\n", field, errs[field])
	}
}

func writeData(w io.Writer, step wizard.Step, data wizard.StepData) {
	width := 0
	for _, field := range step.Schema.Fields() {
		width = max(width, len(field.Name))
	}
	for _, field := range step.Schema.Fields() {
		value, ok := data[field.Name]
		rendered := wizard.FormatValue(value)
		if !ok {
			rendered = "-"
		}
		fmt.Fprintf(w, "  %-*s  %s\n", width, field.Name, rendered)
	}
	extra := make([]string, 0)
	for _, key := range data.Keys() {
		if _, known := step.Schema.Field(key); !known {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		fmt.Fprintf(w, "  (ignored: %s)\n", strings.Join(extra, ", "))
	}
}

func writeBudgetSummary(w io.Writer, summary igp.BudgetSummary) {
	fmt.Fprintln(w, "Funding summary")
	fmt.Fprintf(w, "  calculated total   $%s\n", money(summary.CalculatedTotal))
	fmt.Fprintf(w, "  declared total     $%s\n", money(summary.TotalEligibleExpenditure))
	fmt.Fprintf(w, "  grant sought       $%s\n", money(summary.GrantAmountSought))
	if summary.HasPercentage {
		fmt.Fprintf(w, "  grant share        %.1f%%\n", summary.GrantPercentage)
	}
	if summary.Difference != 0 {
		fmt.Fprintf(w, "  difference         $%s\n", money(summary.Difference))
	}
}

// money renders whole dollars with thousands separators.
func money(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatFloat(amount, 'f', 0, 64)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
