package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/faturroziq/bot-atechh/internal/domain/kuliah"
	"github.com/faturroziq/bot-atechh/internal/domain/shared"
	"github.com/faturroziq/bot-atechh/internal/interface/whatsapp/presenter"
)

// TugasHandler implements the /tugas command family: list, add, remove.
type TugasHandler struct {
	store kuliah.Store
}

// NewTugasHandler creates the /tugas handler.
func NewTugasHandler(store kuliah.Store) *TugasHandler {
	return &TugasHandler{store: store}
}

// Handle implements CommandHandler. Bare /tugas behaves like /tugas list.
func (h *TugasHandler) Handle(ctx context.Context, cmdCtx CommandContext) (string, error) {
	sub, rest := splitSubcommand(cmdCtx.Args)

	switch sub {
	case "", "list":
		return h.list(ctx)
	case "add":
		return h.add(ctx, rest)
	case "remove":
		return h.remove(ctx, rest)
	default:
		return presenter.TugasAddUsage + "\n" + presenter.TugasRemoveUsage, nil
	}
}

// list replies with all stored assignments.
func (h *TugasHandler) list(ctx context.Context) (string, error) {
	doc, err := h.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load tugas: %w", err)
	}
	return presenter.TugasListReply(doc.Tugas), nil
}

// add parses "judul,matkul,jam,id" and appends the assignment.
// Malformed input gets the usage reply, never a partial write.
func (h *TugasHandler) add(ctx context.Context, rest string) (string, error) {
	tugas, err := parseTugasAdd(rest)
	if err != nil {
		return presenter.TugasAddUsage, nil
	}

	err = h.store.Update(ctx, func(doc *kuliah.Document) error {
		return doc.AddTugas(tugas)
	})
	if err != nil {
		return "", fmt.Errorf("store tugas: %w", err)
	}

	return presenter.TugasAdded(tugas.Title), nil
}

// remove deletes the assignment with the given id. Removing an unknown id
// still replies success; the reply describes intent, not effect.
func (h *TugasHandler) remove(ctx context.Context, rest string) (string, error) {
	id := strings.TrimSpace(rest)
	if id == "" {
		return presenter.TugasRemoveUsage, nil
	}

	err := h.store.Update(ctx, func(doc *kuliah.Document) error {
		doc.RemoveTugas(id)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("remove tugas: %w", err)
	}

	return presenter.TugasRemoved(id), nil
}

// splitSubcommand splits "add a,b,c,d" into ("add", "a,b,c,d").
func splitSubcommand(args string) (sub string, rest string) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	sub = strings.ToLower(parts[0])
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return sub, rest
}

// parseTugasAdd tokenizes the add payload: split on commas, trim each field,
// require exactly four non-empty fields in judul,matkul,jam,id order.
func parseTugasAdd(rest string) (kuliah.Assignment, error) {
	fields := strings.Split(rest, ",")
	if len(fields) != 4 {
		return kuliah.Assignment{}, shared.WrapError("kuliah", "AddTugas",
			shared.ErrMalformedCommand, "expected judul,matkul,jam,id", nil)
	}

	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
		if fields[i] == "" {
			return kuliah.Assignment{}, shared.WrapError("kuliah", "AddTugas",
				shared.ErrMalformedCommand, "empty field", nil)
		}
	}

	return kuliah.Assignment{
		Title:  fields[0],
		Course: fields[1],
		Due:    fields[2],
		ID:     fields[3],
	}, nil
}
