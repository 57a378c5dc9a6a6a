package types

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const PointsPerCm = 72.0 / 2.54

type Validater interface {
	Validate() map[string]string
}

// AutoMargin asks the server to detect a margin from the page content.
const AutoMargin = "auto"

// Layout selects the CSV shape written next to the cropped PDF.
type Layout string

const (
	LayoutFlat   Layout = "flat"
	LayoutLevels Layout = "levels"
)

// CropParams are the text form fields sent next to the uploaded PDF.
type CropParams struct {
	TopCm    string `form:"top_cm" validate:"required,margin"`
	BottomCm string `form:"bottom_cm" validate:"required,margin"`
	Layout   string `form:"layout" validate:"omitempty,oneof=flat levels"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("margin", isMargin); err != nil {
		panic(err)
	}
	return v
}

// isMargin accepts AutoMargin or any finite, non-negative float that
// strconv.ParseFloat understands, such as ".5", "2." or "1e1".
func isMargin(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == AutoMargin {
		return true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f >= 0
}

func (params *CropParams) Validate() map[string]string {
	if err := validate.Struct(params); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

// Margins converts validated params into crop margins in points. A side
// set to AutoMargin is flagged for detection and left at zero.
func (params *CropParams) Margins() (Margins, error) {
	var m Margins

	if params.TopCm == AutoMargin {
		m.AutoTop = true
	} else {
		top, err := strconv.ParseFloat(params.TopCm, 64)
		if err != nil {
			return Margins{}, fmt.Errorf("invalid top_cm %q: %w", params.TopCm, err)
		}
		m.Top = top * PointsPerCm
	}

	if params.BottomCm == AutoMargin {
		m.AutoBottom = true
	} else {
		bottom, err := strconv.ParseFloat(params.BottomCm, 64)
		if err != nil {
			return Margins{}, fmt.Errorf("invalid bottom_cm %q: %w", params.BottomCm, err)
		}
		m.Bottom = bottom * PointsPerCm
	}

	return m, nil
}

// Options bundles the margins with the requested CSV layout.
func (params *CropParams) Options() (ProcessOptions, error) {
	m, err := params.Margins()
	if err != nil {
		return ProcessOptions{}, err
	}
	layout := Layout(params.Layout)
	if layout == "" {
		layout = LayoutFlat
	}
	return ProcessOptions{Margins: m, Layout: layout}, nil
}

// Margins are measured in PDF points from the top and bottom page edges.
type Margins struct {
	Top        float64
	Bottom     float64
	AutoTop    bool
	AutoBottom bool
}

func (m Margins) IsZero() bool {
	return m.Top == 0 && m.Bottom == 0 && !m.IsAuto()
}

func (m Margins) IsAuto() bool {
	return m.AutoTop || m.AutoBottom
}

type ProcessOptions struct {
	Margins Margins
	Layout  Layout
}

type Section struct {
	Title   string
	Content string
}

// LeveledSection is a block of content under up to three levels of
// numbered headings. Unset levels are empty.
type LeveledSection struct {
	Level1  string
	Level2  string
	Level3  string
	Content string
}

type JobStatus string

const (
	JobDone   JobStatus = "done"
	JobFailed JobStatus = "failed"
)

type Job struct {
	ID        uuid.UUID `json:"id"`
	Filename  string    `json:"filename"`
	TopCm     string    `json:"top_cm"`
	BottomCm  string    `json:"bottom_cm"`
	Sections  int       `json:"sections"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
