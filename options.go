package docpreview

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/livefir/docpreview/internal/document"
)

// PageMode selects fluid web layout or fixed print layout
type PageMode string

// Orientation of the printed sheet, only meaningful in fixed page mode
type Orientation string

// Direction is the root writing direction
type Direction string

const (
	PageModeFluid PageMode = "fluid"
	PageModeFixed PageMode = "fixed"

	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"

	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

// PresentationOptions affect only the generated stylesheet, never the bound data
type PresentationOptions struct {
	PageMode    PageMode    `json:"pageMode" yaml:"page_mode" validate:"omitempty,oneof=fluid fixed"`
	Orientation Orientation `json:"orientation" yaml:"orientation" validate:"omitempty,oneof=portrait landscape"`
	Direction   Direction   `json:"direction" yaml:"direction" validate:"omitempty,oneof=ltr rtl"`
}

// ErrInvalidOptions is returned when a presentation option has an unknown value
var ErrInvalidOptions = errors.New("invalid presentation options")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator (singleton)
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// DefaultOptions returns fluid, portrait, left-to-right
func DefaultOptions() PresentationOptions {
	return PresentationOptions{
		PageMode:    PageModeFluid,
		Orientation: Portrait,
		Direction:   LTR,
	}
}

// Normalize fills empty fields with their defaults
func (o PresentationOptions) Normalize() PresentationOptions {
	if o.PageMode == "" {
		o.PageMode = PageModeFluid
	}
	if o.Orientation == "" {
		o.Orientation = Portrait
	}
	if o.Direction == "" {
		o.Direction = LTR
	}
	return o
}

// Validate checks every field against its allowed values
func (o PresentationOptions) Validate() error {
	if err := getValidator().Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s=%q", fe.Field(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// documentOptions maps presentation options to the assembler's view of them
func (o PresentationOptions) documentOptions() document.Options {
	o = o.Normalize()
	return document.Options{
		Fixed:     o.PageMode == PageModeFixed,
		Landscape: o.Orientation == Landscape,
		Direction: string(o.Direction),
	}
}
