// Package kuliah contains the core domain model for the course schedule bot:
// the weekly timetable (jadwal) and the assignment list (tugas), both stored
// together in a single durable document.
package kuliah

import (
	"strings"

	"github.com/faturroziq/bot-atechh/internal/domain/shared"
)

// ClassSlot is a single scheduled class on a given weekday.
type ClassSlot struct {
	// Course is the course name (matkul).
	Course string `json:"matkul"`

	// Time is the start time in "HH:MM" 24h format (jam).
	Time string `json:"jam"`

	// Note carries free-form info such as room or lecturer (info).
	Note string `json:"info"`
}

// Assignment is a single homework entry in the tugas list.
type Assignment struct {
	// ID is a short user-chosen identifier, unique by convention only.
	ID string `json:"id"`

	// Title is the assignment title (judul).
	Title string `json:"judul"`

	// Course is the course the assignment belongs to (matkul).
	Course string `json:"matkul"`

	// Due is the free-form deadline text (jam).
	Due string `json:"jam"`
}

// Timetable maps lowercase Indonesian weekday names (senin..minggu) to the
// classes scheduled on that day.
type Timetable map[string][]ClassSlot

// Document is the full persisted state of the bot.
type Document struct {
	Jadwal Timetable    `json:"jadwal"`
	Tugas  []Assignment `json:"tugas"`
}

// NewDocument returns an empty document with initialized collections,
// matching the shape written when the backing file is first created.
func NewDocument() *Document {
	return &Document{
		Jadwal: make(Timetable),
		Tugas:  make([]Assignment, 0),
	}
}

// Normalize makes a decoded document safe to use: nil maps and slices from
// partial JSON are replaced with empty ones.
func (d *Document) Normalize() {
	if d.Jadwal == nil {
		d.Jadwal = make(Timetable)
	}
	if d.Tugas == nil {
		d.Tugas = make([]Assignment, 0)
	}
}

// SlotsFor returns the classes scheduled on the given weekday.
// Day lookup is case-insensitive; a missing day yields an empty slice.
func (d *Document) SlotsFor(day string) []ClassSlot {
	return d.Jadwal[strings.ToLower(strings.TrimSpace(day))]
}

// AddTugas appends an assignment after validating it.
func (d *Document) AddTugas(a Assignment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	d.Tugas = append(d.Tugas, a)
	return nil
}

// RemoveTugas removes all assignments with the given id and reports whether
// anything was removed.
func (d *Document) RemoveTugas(id string) bool {
	id = strings.TrimSpace(id)
	kept := d.Tugas[:0]
	removed := false
	for _, t := range d.Tugas {
		if t.ID == id {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	d.Tugas = kept
	return removed
}

// Validate checks that all four assignment fields are present.
func (a Assignment) Validate() error {
	switch {
	case strings.TrimSpace(a.Title) == "":
		return shared.WrapError("kuliah", "Validate", shared.ErrEmptyValue, "judul is required", nil)
	case strings.TrimSpace(a.Course) == "":
		return shared.WrapError("kuliah", "Validate", shared.ErrEmptyValue, "matkul is required", nil)
	case strings.TrimSpace(a.Due) == "":
		return shared.WrapError("kuliah", "Validate", shared.ErrEmptyValue, "jam is required", nil)
	case strings.TrimSpace(a.ID) == "":
		return shared.WrapError("kuliah", "Validate", shared.ErrEmptyValue, "id is required", nil)
	}
	return nil
}
