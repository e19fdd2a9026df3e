package core

import (
	"io"
	"testing"
)

func TestRegister_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("registering sfm twice should panic")
		}
	}()
	Register(FormatDefinition{
		Info:   FormatInfo{Key: FormatSFM},
		Render: func(io.Writer, Job) error { return nil },
	})
}

func TestRegister_Custom(t *testing.T) {
	before := FormatCount()
	Register(FormatDefinition{
		Info:   FormatInfo{Key: "test-txt", Extension: ".txt", Order: 99},
		Render: func(w io.Writer, job Job) error { _, err := io.WriteString(w, job.BaseName); return err },
	})
	defer unregister("test-txt")

	if got := FormatCount(); got != before+1 {
		t.Errorf("FormatCount = %d, want %d", got, before+1)
	}
	def, ok := Get("test-txt")
	if !ok {
		t.Fatal("Get(test-txt) not found")
	}
	if got := def.OutputName("list"); got != "list.txt" {
		t.Errorf("OutputName = %q, want list.txt", got)
	}
	keys := Keys()
	if keys[len(keys)-1] != "test-txt" {
		t.Errorf("Keys() = %v, want test-txt last", keys)
	}
}

func TestGet_LIFTFileName(t *testing.T) {
	def, ok := Get(FormatLIFT)
	if !ok {
		t.Fatal("lift format not registered")
	}
	if got := def.OutputName("kamus"); got != "kamus_LIFT_Package.zip" {
		t.Errorf("OutputName = %q", got)
	}
}
