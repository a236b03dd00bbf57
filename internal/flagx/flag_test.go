package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	allowed := []string{"-s", "-f", "--config"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "separate flag and value",
			args: []string{"-s", "mongo", "-x", "junk"},
			want: []string{"-s", "mongo"},
		},
		{
			name: "equals form",
			args: []string{"--config=conf.json", "--other=ignored"},
			want: []string{"--config=conf.json"},
		},
		{
			name: "flag followed by another flag keeps no value",
			args: []string{"-s", "-f", "bot.db"},
			want: []string{"-s", "-f", "bot.db"},
		},
		{
			name: "empty input",
			args: nil,
			want: []string{},
		},
		{
			name: "nothing allowed",
			args: []string{"-x", "1", "-y=2"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	old := os.Args
	t.Cleanup(func() { os.Args = old })

	os.Args = []string{"bot", "-c", "conf.json"}
	assert.Equal(t, "conf.json", JsonConfigFlags())

	os.Args = []string{"bot", "-config=other.json"}
	assert.Equal(t, "other.json", JsonConfigFlags())

	os.Args = []string{"bot"}
	assert.Equal(t, "", JsonConfigFlags())
}
