package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestUploadPage_EscapesAndMarksOptions(t *testing.T) {
	var buf bytes.Buffer
	opts := []Option{
		{Value: "mysql", Label: "mysql", Configured: true},
		{Value: "neptune", Label: "neptune", Configured: false},
	}
	flash := Flash{Kind: "error", Message: `bad <script>`, Code: "FMT001"}

	if err := UploadPage(opts, "mysql", flash).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "<script>") {
		t.Error("flash message not escaped")
	}
	for _, want := range []string{
		`<option value="mysql" selected>mysql</option>`,
		`<option value="neptune" disabled>neptune (not configured)</option>`,
		`Code: FMT001`,
		`name="table_name"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestAlert_EmptyRendersNothing(t *testing.T) {
	var buf bytes.Buffer
	if err := Alert(Flash{}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Alert(Flash{}) = %q, want empty", buf.String())
	}
}
