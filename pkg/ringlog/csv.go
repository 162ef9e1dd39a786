package ringlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// csvHeader lists the exported columns: timestamp, state fields, command
// fields.
func csvHeader() []string {
	h := []string{"time", "seq", "state_time_us"}
	for _, group := range []string{"q", "dq", "tau_j"} {
		for i := 0; i < 7; i++ {
			h = append(h, fmt.Sprintf("%s%d", group, i))
		}
	}
	h = append(h, "cmd_kind", "cmd_signal")
	for i := 0; i < 16; i++ {
		h = append(h, fmt.Sprintf("cmd_motion%d", i))
	}
	for i := 0; i < 7; i++ {
		h = append(h, fmt.Sprintf("cmd_tau%d", i))
	}
	return h
}

// WriteCSV renders records as CSV rows, oldest first. Pure formatting; no
// dependency on the control loop.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader()); err != nil {
		return fmt.Errorf("ringlog: write csv header: %w", err)
	}

	row := make([]string, 0, len(csvHeader()))
	for _, r := range records {
		row = row[:0]
		row = append(row,
			r.Time.Format(time.RFC3339Nano),
			strconv.FormatUint(uint64(r.State.Seq), 10),
			strconv.FormatUint(r.State.Time, 10),
		)
		for _, vs := range [][7]float64{r.State.Q, r.State.Dq, r.State.TauJ} {
			for _, v := range vs {
				row = append(row, formatF(v))
			}
		}
		row = append(row, r.Command.Kind.String(), r.Command.Signal.String())
		for _, v := range r.Command.Motion {
			row = append(row, formatF(v))
		}
		for _, v := range r.Command.Tau {
			row = append(row, formatF(v))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("ringlog: write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatF(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// LogFileName builds a unique file name for an exported activation log,
// stamped with the activation ID.
func LogFileName(activation uuid.UUID, at time.Time) string {
	return fmt.Sprintf("log-%s-%s.csv", at.Format("2006-01-02-15-04-05"), activation)
}
