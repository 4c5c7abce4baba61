package kuliah

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faturroziq/bot-atechh/internal/domain/shared"
)

func TestNewDocument(t *testing.T) {
	doc := NewDocument()

	assert.NotNil(t, doc.Jadwal)
	assert.NotNil(t, doc.Tugas)
	assert.Empty(t, doc.Tugas)
}

func TestDocument_Normalize(t *testing.T) {
	doc := &Document{}
	doc.Normalize()

	assert.NotNil(t, doc.Jadwal)
	assert.NotNil(t, doc.Tugas)
}

func TestDocument_SlotsFor(t *testing.T) {
	doc := NewDocument()
	doc.Jadwal["senin"] = []ClassSlot{
		{Course: "Kalkulus", Time: "08:00", Note: "R.301"},
	}

	tests := []struct {
		name string
		day  string
		want int
	}{
		{"exact match", "senin", 1},
		{"uppercase input", "SENIN", 1},
		{"padded input", "  senin ", 1},
		{"missing day", "selasa", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, doc.SlotsFor(tt.day), tt.want)
		})
	}
}

func TestDocument_AddTugas(t *testing.T) {
	doc := NewDocument()

	err := doc.AddTugas(Assignment{ID: "1", Title: "Laporan", Course: "Fisika", Due: "Jumat"})
	require.NoError(t, err)
	assert.Len(t, doc.Tugas, 1)

	err = doc.AddTugas(Assignment{ID: "2", Title: "", Course: "Fisika", Due: "Jumat"})
	assert.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
	assert.Len(t, doc.Tugas, 1, "invalid assignment must not be appended")
}

func TestDocument_RemoveTugas(t *testing.T) {
	doc := NewDocument()
	doc.Tugas = []Assignment{
		{ID: "1", Title: "A", Course: "X", Due: "besok"},
		{ID: "2", Title: "B", Course: "Y", Due: "lusa"},
		{ID: "1", Title: "C", Course: "Z", Due: "besok"},
	}

	removed := doc.RemoveTugas("1")
	assert.True(t, removed)
	require.Len(t, doc.Tugas, 1)
	assert.Equal(t, "2", doc.Tugas[0].ID)

	removed = doc.RemoveTugas("missing")
	assert.False(t, removed)
	assert.Len(t, doc.Tugas, 1)
}

func TestAssignment_Validate(t *testing.T) {
	tests := []struct {
		name    string
		a       Assignment
		wantErr bool
	}{
		{"complete", Assignment{ID: "1", Title: "t", Course: "c", Due: "d"}, false},
		{"missing id", Assignment{Title: "t", Course: "c", Due: "d"}, true},
		{"missing title", Assignment{ID: "1", Course: "c", Due: "d"}, true},
		{"missing course", Assignment{ID: "1", Title: "t", Due: "d"}, true},
		{"missing due", Assignment{ID: "1", Title: "t", Course: "c"}, true},
		{"whitespace only", Assignment{ID: " ", Title: "t", Course: "c", Due: "d"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
