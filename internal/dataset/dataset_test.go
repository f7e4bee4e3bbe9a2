package dataset

import "testing"

func TestValue_IsEmpty(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", NullValue(), true},
		{"empty string", StringValue(""), true},
		{"blank is not empty", StringValue(" "), false},
		{"zero number", NumberValue("0"), false},
		{"false bool", BoolValue(false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_Text(t *testing.T) {
	if got := NumberValue("1.50").Text(); got != "1.50" {
		t.Errorf("NumberValue text = %q, want %q", got, "1.50")
	}
	if got := BoolValue(true).Text(); got != "true" {
		t.Errorf("BoolValue text = %q, want %q", got, "true")
	}
	if got := NullValue().Text(); got != "" {
		t.Errorf("NullValue text = %q, want empty", got)
	}
}

func TestDataset_AppendDropsUnknownColumns(t *testing.T) {
	d := New("a", "b")
	d.Append(Row{"a": StringValue("1"), "zzz": StringValue("x")})

	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
	if _, ok := d.Rows[0]["zzz"]; ok {
		t.Error("row kept a key outside Columns")
	}
	if !d.Rows[0].Get("b").IsNull() {
		t.Error("missing column should read as null")
	}
}

func TestDataset_Strings(t *testing.T) {
	d := New("x", "y")
	d.Append(Row{"y": NumberValue("2")})

	got := d.Strings(0)
	if len(got) != 2 || got[0] != "" || got[1] != "2" {
		t.Errorf("Strings(0) = %q, want [\"\" \"2\"]", got)
	}
}
