// Package export builds the admin CSV downloads. Output is RFC 4180 with a
// UTF-8 byte-order mark so spreadsheet applications detect the encoding.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/growthcompass/server/internal/domain/events"
	"github.com/growthcompass/server/internal/domain/selections"
	"github.com/growthcompass/server/internal/domain/users"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// writeCSV emits the BOM, a header row, and the data rows.
func writeCSV(w io.Writer, header []string, rows [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Members writes one row per member with a step-label and memo column pair
// for each viewpoint, in the fixed viewpoint order.
func Members(w io.Writer, members []users.Member) error {
	header := []string{"name", "email", "role", "registered_at"}
	for _, viewpoint := range selections.Viewpoints() {
		header = append(header, viewpoint+"_step", viewpoint+"_memo")
	}

	rows := make([][]string, 0, len(members))
	for _, member := range members {
		row := []string{
			member.User.Name,
			member.User.Email,
			member.User.Role,
			formatTime(member.User.CreatedAt),
		}
		for _, viewpoint := range selections.Viewpoints() {
			if selection, ok := member.Selections[viewpoint]; ok {
				row = append(row, selections.StepLabel(selection.Step), selection.Memo)
			} else {
				row = append(row, "", "")
			}
		}
		rows = append(rows, row)
	}
	return writeCSV(w, header, rows)
}

// EventAttendees writes one row per attendee with their survey answer (at
// most one) and a column per custom question in position order.
func EventAttendees(w io.Writer, attendees []events.AttendeeRow, questions []events.Question, answers []events.CustomAnswer) error {
	header := []string{"name", "email", "attended_at", "satisfaction", "comment"}
	for _, question := range questions {
		header = append(header, question.Prompt)
	}

	// (user, question) -> value
	answerIndex := make(map[string]string, len(answers))
	for _, answer := range answers {
		answerIndex[answer.UserID+"\x00"+answer.QuestionID] = answer.Value
	}

	rows := make([][]string, 0, len(attendees))
	for _, attendee := range attendees {
		row := []string{
			attendee.Name,
			attendee.Email,
			formatTime(attendee.AttendedAt),
		}
		if attendee.Satisfaction != nil {
			row = append(row, strconv.Itoa(*attendee.Satisfaction))
		} else {
			row = append(row, "")
		}
		if attendee.Comment != nil {
			row = append(row, *attendee.Comment)
		} else {
			row = append(row, "")
		}
		for _, question := range questions {
			row = append(row, answerIndex[attendee.UserID+"\x00"+question.ID])
		}
		rows = append(rows, row)
	}
	return writeCSV(w, header, rows)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
