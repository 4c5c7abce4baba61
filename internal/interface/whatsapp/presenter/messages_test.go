package presenter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/faturroziq/bot-atechh/internal/domain/kuliah"
)

func TestJadwalReply(t *testing.T) {
	slots := []kuliah.ClassSlot{
		{Course: "Kalkulus", Time: "08:00", Note: "R301"},
		{Course: "Fisika", Time: "10:30", Note: "Lab 2"},
	}

	reply := JadwalReply("senin", slots)
	assert.Equal(t, "📅 Jadwal senin:\n1. Kalkulus (08:00) - R301\n2. Fisika (10:30) - Lab 2", reply)
}

func TestJadwalReply_NumbersEachSlot(t *testing.T) {
	slots := []kuliah.ClassSlot{
		{Course: "Algoritma", Time: "09:00", Note: "R301"},
	}

	assert.Contains(t, JadwalReply("senin", slots), "1. Algoritma (09:00) - R301")
}

func TestJadwalReply_Empty(t *testing.T) {
	assert.Equal(t, "Tidak ada jadwal hari minggu", JadwalReply("minggu", nil))
}

func TestTugasListReply(t *testing.T) {
	tugas := []kuliah.Assignment{
		{ID: "t1", Title: "Laporan", Course: "Fisika", Due: "Jumat 23:59"},
	}

	reply := TugasListReply(tugas)
	assert.Equal(t, "📌 Daftar Tugas:\nID:t1 - Laporan (Fisika) [Jumat 23:59]", reply)
}

func TestTugasListReply_Empty(t *testing.T) {
	assert.Equal(t, "📌 Tidak ada tugas", TugasListReply(nil))
}

func TestConfirmations(t *testing.T) {
	assert.Equal(t, "✅ Tugas ditambahkan: Laporan", TugasAdded("Laporan"))
	assert.Equal(t, "🗑️ Tugas t1 dihapus", TugasRemoved("t1"))
}

func TestUsageListsAllCommands(t *testing.T) {
	usage := Usage()
	for _, want := range []string{"/jadwal", "/tugas list", "/tugas add", "/tugas remove", "ping"} {
		assert.Contains(t, usage, want)
	}
}
