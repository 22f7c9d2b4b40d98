package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Technique", "Sessions", "Week"}
	rows := [][]string{
		{"pmr", "12", "2/3"},
		{"body_scan", "3", "0/3"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Technique Sessions Week" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "pmr             12  2/3" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "body_scan        3  0/3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Name", "N"}, [][]string{{"呼吸", "1"}}, map[int]bool{1: true})
	if lines[1] != "呼吸 1" {
		t.Fatalf("wide runes must count double: %q", lines[1])
	}
}
