package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexInt(t *testing.T) {
	tests := []struct {
		input   string
		want    flexInt
		wantErr bool
	}{
		{input: `3`, want: 3},
		{input: `"7"`, want: 7},
		{input: `"1v1"`, want: 1},
		{input: `"4V4"`, want: 4},
		{input: `""`, want: 0},
		{input: `null`, want: 0},
		{input: `"many"`, wantErr: true},
		{input: `1.5`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got flexInt
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
