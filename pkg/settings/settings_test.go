package settings

import (
	"testing"
	"time"
)

func TestNewCliParams(t *testing.T) {
	tests := []struct {
		name string
		want *Run
	}{
		{
			name: "default CLI params",
			want: &Run{
				MinLogLevel:  0,
				Mnemonics:    "greedy",
				QueryTimeout: 30 * time.Second,
				NoColor:      false,
				ExitOnError:  true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCliParams()
			if *got != *tt.want {
				t.Errorf("NewCliParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDSNEnvVarsOrder(t *testing.T) {
	if len(DSNEnvVars) != 2 || DSNEnvVars[0] != "DBDRILL_DSN" || DSNEnvVars[1] != "DATABASE_URL" {
		t.Errorf("DSNEnvVars = %v", DSNEnvVars)
	}
}
