package layer

import "testing"

func TestTimeRangeLayerFiltersByWindow(t *testing.T) {
	c := TimeRangeClass{}
	l, err := c.New("tr1", map[string]any{
		"pattern": `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z`,
		"layout":  "2006-01-02T15:04:05Z",
		"since":   "2024-01-01T00:00:00Z",
		"until":   "2024-12-31T23:59:59Z",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	run := l.(*TimeRangeLayer).NewRun()

	cases := []struct {
		content string
		want    bool
	}{
		{"2024-06-15T10:00:00Z something happened", true},
		{"2023-06-15T10:00:00Z too early", false},
		{"2025-01-01T00:00:01Z too late", false},
		{"no timestamp here", false},
	}
	for _, c := range cases {
		content := run.Process(c.content)
		if got := run.Filter(content); got != c.want {
			t.Errorf("Filter(%q) = %v, want %v", c.content, got, c.want)
		}
	}
}
