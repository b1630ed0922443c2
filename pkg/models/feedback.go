// Package models contains domain models for the personalized search core.
package models

// ClickOrderAbsent is the sentinel value for a document the user never
// clicked during the session. Click orders are 1-based.
const ClickOrderAbsent = 0

// FeedbackSignals is the fixed-shape behavioral record collected for one
// document during one user session. CopyPasteChars accumulates; every
// other field is a set-once overwrite.
type FeedbackSignals struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Snippet    string `json:"snippet,omitempty"`
	SourceName string `json:"source_name,omitempty"` // source whose link the user interacted with

	ClickOrder     int   `json:"click_order"` // ClickOrderAbsent when never clicked
	DwellTimeMs    int64 `json:"dwell_time_ms"`
	Printed        bool  `json:"printed"`
	Saved          bool  `json:"saved"`
	Bookmarked     bool  `json:"bookmarked"`
	Emailed        bool  `json:"emailed"`
	CopyPasteChars int64 `json:"copy_paste_chars"`
}

// Clicked reports whether the document was clicked at all.
func (f *FeedbackSignals) Clicked() bool {
	return f.ClickOrder != ClickOrderAbsent
}

// AddCopyPaste accumulates copied characters onto the record.
func (f *FeedbackSignals) AddCopyPaste(chars int64) {
	if chars > 0 {
		f.CopyPasteChars += chars
	}
}

// WeightProfile holds the per-user weights applied to the seven behavioral
// signals, plus the reading-speed normalization constant. The profile is
// owned by the settings feature; the core only reads it.
type WeightProfile struct {
	View     float64 `json:"view" yaml:"view"`         // wV: click order
	Time     float64 `json:"time" yaml:"time"`         // wT: dwell time
	Print    float64 `json:"print" yaml:"print"`       // wP
	Save     float64 `json:"save" yaml:"save"`         // wS
	Bookmark float64 `json:"bookmark" yaml:"bookmark"` // wB
	Email    float64 `json:"email" yaml:"email"`       // wE
	Copy     float64 `json:"copy" yaml:"copy"`         // wC

	// ReadingSpeed is a normalization constant carried for the settings
	// feature; the importance formula itself normalizes dwell time by the
	// session maximum.
	ReadingSpeed float64 `json:"reading_speed" yaml:"reading_speed"`
}

// DefaultWeightProfile returns the neutral profile: every signal weight
// at 1.0.
func DefaultWeightProfile() WeightProfile {
	return WeightProfile{
		View:         1.0,
		Time:         1.0,
		Print:        1.0,
		Save:         1.0,
		Bookmark:     1.0,
		Email:        1.0,
		Copy:         1.0,
		ReadingSpeed: 1.0,
	}
}

// Clamped returns a copy of the profile with negative weights floored at
// zero. Weights are user-tunable upstream and must never be negative here.
func (w WeightProfile) Clamped() WeightProfile {
	floor := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	}
	return WeightProfile{
		View:         floor(w.View),
		Time:         floor(w.Time),
		Print:        floor(w.Print),
		Save:         floor(w.Save),
		Bookmark:     floor(w.Bookmark),
		Email:        floor(w.Email),
		Copy:         floor(w.Copy),
		ReadingSpeed: w.ReadingSpeed,
	}
}
