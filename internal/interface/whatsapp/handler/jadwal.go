package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/faturroziq/bot-atechh/internal/domain/kuliah"
	"github.com/faturroziq/bot-atechh/internal/interface/whatsapp/presenter"
	"github.com/faturroziq/bot-atechh/pkg/timeutil"
)

// JadwalHandler answers /jadwal with the schedule for today (WIB), or for the
// day given as an argument, e.g. "/jadwal senin".
type JadwalHandler struct {
	store   kuliah.Store
	nowFunc func() time.Time
}

// NewJadwalHandler creates the /jadwal handler.
func NewJadwalHandler(store kuliah.Store) *JadwalHandler {
	return &JadwalHandler{
		store:   store,
		nowFunc: timeutil.Now,
	}
}

// Handle implements CommandHandler.
func (h *JadwalHandler) Handle(ctx context.Context, cmdCtx CommandContext) (string, error) {
	doc, err := h.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load schedule: %w", err)
	}

	day := strings.ToLower(strings.TrimSpace(cmdCtx.Args))
	if day == "" {
		day = timeutil.WeekdayNameID(h.nowFunc())
	}

	return presenter.JadwalReply(day, doc.SlotsFor(day)), nil
}
