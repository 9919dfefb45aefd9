package app

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{"引数なしはserve", []string{}, CommandServe},
		{"nilはserve", nil, CommandServe},
		{"serve", []string{"serve"}, CommandServe},
		{"worker", []string{"worker"}, CommandWorker},
		{"migrate", []string{"migrate"}, CommandMigrate},
		{"seed-preferences", []string{"seed-preferences", "matrices.yaml"}, CommandSeedPreferences},
		{"healthcheck", []string{"healthcheck"}, CommandHealthcheck},
		{"未知のコマンドはserve", []string{"unknown"}, CommandServe},
		{"余分な引数は無視", []string{"worker", "--verbose"}, CommandWorker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestCommandArgs(t *testing.T) {
	if got := commandArgs([]string{"seed-preferences"}); got != nil {
		t.Errorf("commandArgs without extra = %v, want nil", got)
	}
	got := commandArgs([]string{"seed-preferences", "a.yaml", "b"})
	if len(got) != 2 || got[0] != "a.yaml" {
		t.Errorf("commandArgs = %v, want [a.yaml b]", got)
	}
}

func TestCommandString(t *testing.T) {
	if string(CommandSeedPreferences) != "seed-preferences" {
		t.Errorf("CommandSeedPreferences = %q", CommandSeedPreferences)
	}
}
