package substrate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyfan1/timegate/internal/substrate"
)

func TestOneShotExpression(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{
			name: "Should render a trigger minute",
			at:   time.Date(2026, time.January, 1, 9, 30, 0, 0, time.UTC),
			want: "cron(30 09 01 01 ? 2026)",
		},
		{
			name: "Should zero-pad single-digit fields",
			at:   time.Date(2026, time.March, 5, 0, 1, 0, 0, time.UTC),
			want: "cron(01 00 05 03 ? 2026)",
		},
		{
			name: "Should convert to UTC first",
			at:   time.Date(2026, time.June, 30, 23, 59, 0, 0, time.FixedZone("plus2", 2*60*60)),
			want: "cron(59 21 30 06 ? 2026)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, substrate.OneShotExpression(tt.at))
		})
	}
}

func TestParseOneShotExpression(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		want    time.Time
		wantErr bool
	}{
		{
			name: "Should recover the trigger minute",
			expr: "cron(30 09 01 01 ? 2026)",
			want: time.Date(2026, time.January, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "Should accept unpadded fields",
			expr: "cron(5 9 1 1 ? 2026)",
			want: time.Date(2026, time.January, 1, 9, 5, 0, 0, time.UTC),
		},
		{
			name:    "Should reject a recurring cron expression",
			expr:    "cron(0 12 * * ? *)",
			wantErr: true,
		},
		{
			name:    "Should reject a rate expression",
			expr:    "rate(5 minutes)",
			wantErr: true,
		},
		{
			name:    "Should reject an out-of-range month",
			expr:    "cron(00 00 01 13 ? 2026)",
			wantErr: true,
		},
		{
			name:    "Should reject a nonexistent day",
			expr:    "cron(00 00 30 02 ? 2026)",
			wantErr: true,
		},
		{
			name:    "Should reject an empty string",
			expr:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := substrate.ParseOneShotExpression(tt.expr)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestExpressionRoundTrip(t *testing.T) {
	at := time.Date(2027, time.December, 31, 23, 59, 0, 0, time.UTC)

	got, err := substrate.ParseOneShotExpression(substrate.OneShotExpression(at))
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
}
