package filehandler

import (
	"path/filepath"
	"testing"
)

func TestSafeJoin(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root")
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"Slide1.png", false},
		{"deck/Slide1.png", false},
		{"deck/../Slide1.png", false},
		{"../x.png", true},
		{"deck/../../x.png", true},
		{"/etc/passwd", true},
		{`..\x.png`, true},
		{"", true},
	}
	for _, tt := range tests {
		_, err := safeJoin(root, tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("safeJoin(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
