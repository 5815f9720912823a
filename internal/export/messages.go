package export

import (
	"errors"

	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/pdfexport"
)

// User-facing messages.
const (
	MsgNoDate        = "Selecione a data do atendimento."
	MsgNoEntries     = "Não há lançamentos para esta data/unidade."
	MsgBusy          = "Já existe um PDF sendo gerado. Aguarde."
	MsgPDFFailed     = "Falha ao gerar PDF. Tente Exportar CSV ou use o botão Imprimir/PDF do navegador."
	MsgInconsistent  = "Os totais do relatório não conferem. Revise os lançamentos."
	MsgExportFailed  = "Não foi possível exportar o relatório."
	MsgUnknownFormat = "Formato de exportação desconhecido."
)

// UserMessage maps an export error to the text shown to the user.
func UserMessage(err error) string {
	var re *pdfexport.RenderError
	var ce *model.CrossCheckError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoDate):
		return MsgNoDate
	case errors.Is(err, ErrNoEntries):
		return MsgNoEntries
	case errors.Is(err, pdfexport.ErrExportInProgress):
		return MsgBusy
	case errors.Is(err, ErrUnknownFormat):
		return MsgUnknownFormat
	case errors.As(err, &re):
		return MsgPDFFailed
	case errors.As(err, &ce):
		return MsgInconsistent
	}
	return MsgExportFailed
}

// IsGate reports whether err is an unmet export precondition.
func IsGate(err error) bool {
	var pe *PhaseError
	return errors.As(err, &pe) && pe.Phase == PhaseGate
}
