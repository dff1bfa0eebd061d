package docpreview

import (
	"errors"
	"strings"
	"testing"
)

func TestPresentationOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    PresentationOptions
		wantErr string
	}{
		{"defaults", DefaultOptions(), ""},
		{"empty is allowed", PresentationOptions{}, ""},
		{"fixed rtl landscape", PresentationOptions{PageMode: PageModeFixed, Orientation: Landscape, Direction: RTL}, ""},
		{"bad page mode", PresentationOptions{PageMode: "paged"}, "PageMode"},
		{"bad orientation", PresentationOptions{Orientation: "sideways"}, "Orientation"},
		{"bad direction", PresentationOptions{Direction: "ttb"}, "Direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidOptions) {
				t.Fatalf("Validate() error = %v, want ErrInvalidOptions", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestPresentationOptions_Normalize(t *testing.T) {
	got := PresentationOptions{Direction: RTL}.Normalize()
	want := PresentationOptions{PageMode: PageModeFluid, Orientation: Portrait, Direction: RTL}
	if got != want {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}
}

func TestPresentationOptions_DocumentOptions(t *testing.T) {
	d := PresentationOptions{PageMode: PageModeFixed, Orientation: Landscape}.documentOptions()
	if !d.Fixed || !d.Landscape || d.Direction != "ltr" {
		t.Errorf("documentOptions() = %+v", d)
	}
}
