package diag

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestCollectorWarn(t *testing.T) {
	var buf bytes.Buffer
	c := NewCollector(log.New(&buf))

	c.Warn(MalformedRecord, "u1", 12, "bad token %q", "(")
	c.Warn(NumericAnomaly, "n3", 0, "negative estimate")
	c.Warn(MalformedRecord, "", 40, "stray line")

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if got := c.Count(MalformedRecord); got != 2 {
		t.Errorf("Count(MalformedRecord) = %d, want 2", got)
	}

	all := c.All()
	if all[0].Entity != "u1" || all[0].Line != 12 {
		t.Errorf("first diagnostic = %+v", all[0])
	}
	if !strings.Contains(buf.String(), "bad token") {
		t.Errorf("warning not logged, output: %q", buf.String())
	}
	if !strings.Contains(all[0].String(), "line 12") {
		t.Errorf("String() = %q, want line number", all[0].String())
	}
}

func TestErrorIs(t *testing.T) {
	err := Errorf(MissingReference, "u7", 3, "macro %s not in library", "FOO")
	wrapped := fmt.Errorf("extract: %w", err)

	if !Is(wrapped, MissingReference) {
		t.Error("Is should find kind through wrapping")
	}
	if Is(wrapped, IncompleteSection) {
		t.Error("Is matched wrong kind")
	}
	if Is(fmt.Errorf("plain"), MissingReference) {
		t.Error("plain error should not match")
	}
	if !strings.Contains(err.Error(), "u7") {
		t.Errorf("Error() = %q, want entity", err.Error())
	}
}
