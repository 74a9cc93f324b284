package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mcoot/pongserver/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return NewOutputTo(format, os.Stdout)
}

// NewOutputTo creates an Output writing to w
func NewOutputTo(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Room:
		o.printRoom(v)
	case response.RoomList:
		o.printRoomList(v)
	case response.Presence:
		o.printPresence(v)
	case response.History:
		o.printHistory(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	case TokenResult:
		fmt.Fprintf(o.w, "Player: %s\n", v.PlayerID)
		fmt.Fprintf(o.w, "Token: %s\n", v.Token)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// TokenResult is a locally minted player token
type TokenResult struct {
	PlayerID string `json:"player_id"`
	Token    string `json:"token"`
}

func (o *Output) printRoom(r response.Room) {
	fmt.Fprintf(o.w, "Room: %s\n", r.RoomID)
	fmt.Fprintf(o.w, "Mode: %s\n", r.Mode)
	fmt.Fprintf(o.w, "State: %s\n", r.State)
	fmt.Fprintf(o.w, "Score: %d - %d\n", r.ScoreLeft, r.ScoreRight)
	fmt.Fprintf(o.w, "Tick: %d\n", r.Tick)
	fmt.Fprintf(o.w, "Created: %s\n", r.CreatedAt.Format(time.RFC3339))
	fmt.Fprintln(o.w, "Players:")
	for _, slot := range r.Players {
		player := slot.PlayerID
		if player == "" {
			player = "(open)"
		}
		bound := ""
		if slot.Bound {
			bound = " [connected]"
		}
		fmt.Fprintf(o.w, "  - %s: %s%s\n", slot.Side, player, bound)
	}
}

func (o *Output) printRoomList(l response.RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Fprintln(o.w, "No live rooms")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROOM\tMODE\tSTATE\tLEFT\tRIGHT\tSCORE")
	for _, r := range l.Rooms {
		left, right := slotPlayer(r, 0), slotPlayer(r, 1)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d-%d\n", r.RoomID, r.Mode, r.State, left, right, r.ScoreLeft, r.ScoreRight)
	}
	_ = tw.Flush()
}

func slotPlayer(r response.Room, i int) string {
	if i >= len(r.Players) || r.Players[i].PlayerID == "" {
		return "-"
	}
	return r.Players[i].PlayerID
}

func (o *Output) printPresence(p response.Presence) {
	fmt.Fprintf(o.w, "Online (%d):\n", len(p.Players))
	for _, id := range p.Players {
		fmt.Fprintf(o.w, "  - %s\n", id)
	}
}

func (o *Output) printHistory(h response.History) {
	if len(h.Matches) == 0 {
		fmt.Fprintf(o.w, "No matches recorded for %s\n", h.PlayerID)
		return
	}
	fmt.Fprintf(o.w, "Matches for %s:\n", h.PlayerID)
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FINISHED\tROOM\tLEFT\tRIGHT\tSCORE\tWINNER\tREASON")
	for _, m := range h.Matches {
		winner := "-"
		if m.Winner != nil {
			winner = *m.Winner
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d-%d\t%s\t%s\n",
			m.FinishedAt.Format(time.RFC3339), m.RoomID, m.PlayerLeft, m.PlayerRight,
			m.ScoreLeft, m.ScoreRight, winner, m.Reason)
	}
	_ = tw.Flush()
}
