package lifecycle

import (
	"fmt"
	"io"

	"github.com/danmuck/simwire/internal/capability"
)

// FprintNotification writes n as one line.
func FprintNotification(w io.Writer, n ChannelChangeNotification) error {
	_, err := fmt.Fprintf(w, "notification type=%s names=%s global=%s transport=%s\n",
		n.Type, n.Names, n.GlobalID, n.Transport)
	return err
}

// FprintUpdate writes u as one line; optional fields appear only when set.
func FprintUpdate(w io.Writer, u ChannelEndUpdate) error {
	route := "none"
	if r, err := RouteOf(u.Kind); err == nil {
		route = r.String()
	}
	dest := u.DestinationID.String()
	if u.Broadcast() {
		dest = "*"
	}
	if _, err := fmt.Fprintf(w, "update kind=%s route=%s names=%s end=%s dest=%s transport=%s",
		u.Kind, route, u.Names, u.EndID, dest, u.Transport); err != nil {
		return err
	}
	if u.Role != capability.None {
		if _, err := fmt.Fprintf(w, " role=%s", u.Role); err != nil {
			return err
		}
	}
	if u.Distribution != capability.NoOpinion {
		if _, err := fmt.Fprintf(w, " distribution=%s", u.Distribution); err != nil {
			return err
		}
	}
	if u.DataClass != "" {
		if _, err := fmt.Fprintf(w, " data_class=%s", u.DataClass); err != nil {
			return err
		}
	}
	if u.SchemaID != "" {
		if _, err := fmt.Fprintf(w, " schema=%s", u.SchemaID); err != nil {
			return err
		}
	}
	if u.JumpTicks != 0 {
		if _, err := fmt.Fprintf(w, " jump=%d", u.JumpTicks); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// FprintMessage writes the header summary and payload of a decoded frame.
func FprintMessage(w io.Writer, m Message) error {
	if _, err := fmt.Fprintf(w, "#%d flags=%#x ", m.Header.MessageID, m.Header.Flags); err != nil {
		return err
	}
	if m.Notification != nil {
		return FprintNotification(w, *m.Notification)
	}
	if m.Update != nil {
		return FprintUpdate(w, *m.Update)
	}
	_, err := io.WriteString(w, "empty\n")
	return err
}
