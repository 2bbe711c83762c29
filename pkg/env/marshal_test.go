package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string        `env:"NAME"`
	Mode     string        `env:"MODE" envDefault:"fast"`
	Enabled  bool          `env:"ENABLED" envDefault:"true"`
	Count    int           `env:"COUNT,required"`
	Weight   float64       `env:"WEIGHT" envDefault:"0.50"`
	Interval time.Duration `env:"INTERVAL" envDefault:"60s"`
	Secret   string        `env:"SECRET"`
	internal string        `env:"INTERNAL"`
	Untagged string
}

func TestMarshalEnv(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want string
	}{
		{
			name: "defaults_and_zero_values_skipped",
			in:   sample{Mode: "fast", Enabled: true, Weight: 0.5, Interval: time.Minute},
			want: "",
		},
		{
			name: "false_overrides_true_default",
			in:   sample{Mode: "fast", Enabled: false, Weight: 0.5, Interval: time.Minute},
			want: "ENABLED=false\n",
		},
		{
			name: "changed_values_in_field_order",
			in: sample{
				Name:     "vibectx",
				Mode:     "slow",
				Enabled:  true,
				Count:    3,
				Weight:   0.25,
				Interval: 90 * time.Second,
				internal: "hidden",
				Untagged: "ignored",
			},
			want: "NAME=vibectx\nMODE=slow\nCOUNT=3\nWEIGHT=0.25\nINTERVAL=1m30s\n",
		},
		{
			name: "values_needing_quotes",
			in:   sample{Mode: "fast", Enabled: true, Weight: 0.5, Interval: time.Minute, Secret: "a b#c"},
			want: "SECRET=\"a b#c\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalEnv(&tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarshalEnv_RejectsNonPointer(t *testing.T) {
	_, err := MarshalEnv(sample{})
	assert.Error(t, err)
}

func TestMarshalEnv_ReadableByGodotenv(t *testing.T) {
	in := sample{Name: "vibectx", Mode: "fast", Weight: 0.5, Interval: 5 * time.Second, Secret: `sk "quoted" #1`}
	content, err := MarshalEnv(&in)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	got, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"NAME":     "vibectx",
		"ENABLED":  "false",
		"INTERVAL": "5s",
		"SECRET":   `sk "quoted" #1`,
	}, got)
}
