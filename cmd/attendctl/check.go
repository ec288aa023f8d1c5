package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"attendance-backend/internal/attendance"
	"attendance-backend/internal/correction"
)

type checkOptions struct {
	sessionsFile  string
	sessionID     uint64
	checkIn       string
	checkOut      string
	justification string
	asJSON        bool
}

func newCheckCmd(loc func() (*time.Location, error)) *cobra.Command {
	var o checkOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the full correction validation against a JSON session snapshot",
		Long: `check reads the user's sessions (the JSON array returned by
GET /api/v1/attendance/sessions) and validates a correction of one of them.
Exit status is 1 when the correction would be rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := loc()
			if err != nil {
				return err
			}
			sessions, err := readSessions(o.sessionsFile, l)
			if err != nil {
				return err
			}
			return runCheck(cmd.OutOrStdout(), o, sessions)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.sessionsFile, "sessions", "", "sessions JSON file (- for stdin)")
	f.Uint64Var(&o.sessionID, "session", 0, "id of the session to correct")
	f.StringVar(&o.checkIn, "check-in", "", `new check-in, e.g. "9:30 AM"`)
	f.StringVar(&o.checkOut, "check-out", "", `new check-out, e.g. "5:30 PM"`)
	f.StringVar(&o.justification, "reason", "", "justification")
	f.BoolVar(&o.asJSON, "json", false, "print the outcome as JSON")
	_ = cmd.MarkFlagRequired("sessions")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func readSessions(path string, loc *time.Location) ([]attendance.Session, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return decodeSessions(r, loc)
}

// 一覧APIの形式（{"items": [...]}）と配列のどちらも受け付ける
func decodeSessions(r io.Reader, loc *time.Location) ([]attendance.Session, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var items []attendance.SessionResponse
	if err := json.Unmarshal(raw, &items); err != nil {
		var page struct {
			Items []attendance.SessionResponse `json:"items"`
		}
		if err2 := json.Unmarshal(raw, &page); err2 != nil {
			return nil, fmt.Errorf("decode sessions: %w", err)
		}
		items = page.Items
	}
	out := make([]attendance.Session, 0, len(items))
	for _, it := range items {
		s := attendance.Session{
			ID:           it.SessionID,
			UserID:       it.UserID,
			CheckInTime:  it.CheckInTime,
			CheckOutTime: it.CheckOutTime,
			Agenda:       it.Agenda,
		}
		out = append(out, s.In(loc))
	}
	return out, nil
}

func runCheck(w io.Writer, o checkOptions, sessions []attendance.Session) error {
	var base *attendance.Session
	for i := range sessions {
		if sessions[i].ID == o.sessionID {
			base = &sessions[i]
			break
		}
	}
	if base == nil {
		return fmt.Errorf("session %d not found in snapshot", o.sessionID)
	}
	others := make([]attendance.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.UserID == base.UserID {
			others = append(others, s)
		}
	}

	p := correction.Proposal{
		Base:          *base,
		CheckInText:   o.checkIn,
		CheckOutText:  o.checkOut,
		Justification: o.justification,
	}
	outcome := correction.Validate(p, others)

	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome.ToResponse()); err != nil {
			return err
		}
	} else {
		printOutcome(w, outcome)
	}
	if !outcome.Submittable() {
		return errNotSubmittable
	}
	return nil
}

func printOutcome(w io.Writer, o correction.Outcome) {
	if o.ResolvedCheckIn != nil {
		fmt.Fprintf(w, "check_in:      %s (%s)\n", correction.FormatTime(*o.ResolvedCheckIn), o.ResolvedCheckIn.Format(time.RFC3339))
	}
	if o.ResolvedCheckOut != nil {
		fmt.Fprintf(w, "check_out:     %s (%s)\n", correction.FormatTime(*o.ResolvedCheckOut), o.ResolvedCheckOut.Format(time.RFC3339))
	}

	fields := make([]string, 0, len(o.FieldErrors))
	for f := range o.FieldErrors {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	for _, f := range fields {
		e := o.FieldErrors[correction.Field(f)]
		fmt.Fprintf(w, "error %-13s %s: %s\n", f+":", e.Rule, e.Message)
	}
	if o.GeneralError != nil {
		fmt.Fprintf(w, "error general:  %s: %s\n", o.GeneralError.Rule, o.GeneralError.Message)
	}
	for _, c := range o.ConflictingSessions {
		fmt.Fprintf(w, "conflict:      #%d %s %s - %s\n", c.ID, c.WorkDate(),
			correction.FormatTime(c.CheckInTime), correction.FormatTime(*c.CheckOutTime))
	}
	if o.Submittable() {
		fmt.Fprintln(w, "submittable:   yes")
	} else {
		fmt.Fprintln(w, "submittable:   no")
	}
}
