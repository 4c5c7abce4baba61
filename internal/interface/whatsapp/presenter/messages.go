// Package presenter formats all user-facing replies. The bot speaks
// Indonesian; every string the user sees lives here.
package presenter

import (
	"fmt"
	"strings"

	"github.com/faturroziq/bot-atechh/internal/domain/kuliah"
)

// Fixed replies.
const (
	// Pong answers a plain "ping" message.
	Pong = "pong ✅"

	// StickerFailed is sent when an image could not be turned into a sticker.
	StickerFailed = "Gagal membuat stiker 😅"

	// GenericError is the apologetic reply for internal failures.
	GenericError = "Aduh, ada yang error di bot. Coba lagi nanti ya 🙏"

	// TugasAddUsage corrects a malformed /tugas add invocation.
	TugasAddUsage = "Format: /tugas add judul,matkul,jam,id"

	// TugasRemoveUsage corrects a malformed /tugas remove invocation.
	TugasRemoveUsage = "Format: /tugas remove id"
)

// Usage lists every command, sent for unknown commands.
func Usage() string {
	return strings.Join([]string{
		"🤖 KuliahBot — perintah yang tersedia:",
		"/jadwal → jadwal kuliah hari ini",
		"/tugas list → daftar tugas",
		"/tugas add judul,matkul,jam,id → tambah tugas",
		"/tugas remove id → hapus tugas",
		"ping → cek bot hidup",
		"kirim gambar → dibuat stiker",
	}, "\n")
}

// JadwalReply formats the schedule for one day.
func JadwalReply(day string, slots []kuliah.ClassSlot) string {
	if len(slots) == 0 {
		return fmt.Sprintf("Tidak ada jadwal hari %s", day)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 Jadwal %s:", day)
	for i, slot := range slots {
		fmt.Fprintf(&b, "\n%d. %s (%s) - %s", i+1, slot.Course, slot.Time, slot.Note)
	}
	return b.String()
}

// TugasListReply formats the assignment list.
func TugasListReply(tugas []kuliah.Assignment) string {
	if len(tugas) == 0 {
		return "📌 Tidak ada tugas"
	}

	var b strings.Builder
	b.WriteString("📌 Daftar Tugas:")
	for _, t := range tugas {
		fmt.Fprintf(&b, "\nID:%s - %s (%s) [%s]", t.ID, t.Title, t.Course, t.Due)
	}
	return b.String()
}

// TugasAdded confirms a stored assignment.
func TugasAdded(judul string) string {
	return fmt.Sprintf("✅ Tugas ditambahkan: %s", judul)
}

// TugasRemoved confirms a removal.
func TugasRemoved(id string) string {
	return fmt.Sprintf("🗑️ Tugas %s dihapus", id)
}
