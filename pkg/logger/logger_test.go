package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		logFile string
		wantErr bool
	}{
		{
			name:    "init with debug level, no file",
			level:   "debug",
			logFile: "",
			wantErr: false,
		},
		{
			name:    "init with info level, no file",
			level:   "info",
			logFile: "",
			wantErr: false,
		},
		{
			name:    "init with warn level, no file",
			level:   "warn",
			logFile: "",
			wantErr: false,
		},
		{
			name:    "init with error level, no file",
			level:   "error",
			logFile: "",
			wantErr: false,
		},
		{
			name:    "init with unknown level falls back to info",
			level:   "verbose",
			logFile: "",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(tt.level, tt.logFile)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && Log == nil {
				t.Error("Init() left Log nil")
			}
		})
	}
}

func TestNamed(t *testing.T) {
	Log = nil
	if got := Named("poller"); got == nil {
		t.Fatal("Named() = nil with nil Log, want no-op logger")
	}

	Log = zap.NewNop()
	if got := Named("poller"); got == nil {
		t.Fatal("Named() = nil, want child logger")
	}
}

func TestSync(t *testing.T) {
	Log = nil
	if err := Sync(); err != nil {
		t.Errorf("Sync() with nil Log = %v, want nil", err)
	}
}
