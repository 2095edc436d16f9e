package discourse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/weitblick/internal/model"
)

func TestParseDiscourse(t *testing.T) {
	all := model.AllPerspectives

	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{
			name: "in order",
			text: "KANT: a | HEIDEGGER: b | HEGEL: c | NAGARJUNA: d | WISSENSCHAFT: e",
		},
		{
			name: "reordered complete set",
			text: "WISSENSCHAFT: e|HEGEL: c|KANT: a|NAGARJUNA: d|HEIDEGGER: b",
		},
		{
			name: "trailing separator",
			text: "KANT: a | HEIDEGGER: b | HEGEL: c | NAGARJUNA: d | WISSENSCHAFT: e |",
		},
		{
			name:    "missing tag",
			text:    "KANT: a | HEIDEGGER: b | HEGEL: c | NAGARJUNA: d",
			wantErr: true,
		},
		{
			name:    "reordered with missing tag",
			text:    "HEGEL: c | KANT: a | WISSENSCHAFT: e | HEIDEGGER: b",
			wantErr: true,
		},
		{
			name:    "duplicate tag",
			text:    "KANT: a | KANT: b | HEGEL: c | NAGARJUNA: d | WISSENSCHAFT: e",
			wantErr: true,
		},
		{
			name:    "unknown tag",
			text:    "KANT: a | HEIDEGGER: b | HEGEL: c | NAGARJUNA: d | WISSENSCHAFT: e | SOKRATES: f",
			wantErr: true,
		},
		{
			name:    "segment without tag",
			text:    "KANT: a | some prose | HEGEL: c | NAGARJUNA: d | WISSENSCHAFT: e",
			wantErr: true,
		},
		{
			name:    "lower-case tag",
			text:    "Kant: a | HEIDEGGER: b | HEGEL: c | NAGARJUNA: d | WISSENSCHAFT: e",
			wantErr: true,
		},
		{
			name:    "empty segment body",
			text:    "KANT: | HEIDEGGER: b | HEGEL: c | NAGARJUNA: d | WISSENSCHAFT: e",
			wantErr: true,
		},
		{
			name:    "empty reply",
			text:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDiscourse(tt.text, all)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrDiscourseMismatch)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(all))
			assert.Equal(t, "KANT: a", got[model.PerspectiveKant])
			assert.Equal(t, "WISSENSCHAFT: e", got[model.PerspectiveWissenschaft])
		})
	}
}
