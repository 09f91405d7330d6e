package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTryParseTime(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
		want  time.Time
	}{
		{"2024-01-01", true, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-02-01 13:45:00", true, time.Date(2024, 2, 1, 13, 45, 0, 0, time.UTC)},
		{"2024-03-01T08:00:00Z", true, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
		{"2024/04/05", true, time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC)},
		{"15-Jan-2024", true, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"January 2, 2024", true, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"  2024-01-01  ", true, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"n/a", false, time.Time{}},
		{"Widget", false, time.Time{}},
		{"", false, time.Time{}},
		{"12345", false, time.Time{}},
		{"3.14", false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := TryParseTime(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsesAsTime(t *testing.T) {
	assert.True(t, ParsesAsTime([]any{"2024-01-01", nil, "2024-02-01"}, false))
	assert.True(t, ParsesAsTime([]any{time.Now(), "2024-02-01"}, false))
	assert.False(t, ParsesAsTime([]any{"2024-01-01", "n/a"}, true))
	assert.False(t, ParsesAsTime([]any{1.5}, true))

	// all-missing columns follow the vacuous flag
	assert.True(t, ParsesAsTime([]any{nil, nil}, true))
	assert.False(t, ParsesAsTime([]any{nil, nil}, false))
	assert.False(t, ParsesAsTime(nil, false))
}
