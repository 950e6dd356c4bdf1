package handler

import (
	"encoding/json"
	"net/http"

	"expense-ledger/internal/service"
)

type ReportHandler struct {
	transactionService *service.TransactionService
}

func NewReportHandler(transactionService *service.TransactionService) *ReportHandler {
	return &ReportHandler{
		transactionService: transactionService,
	}
}

type SummaryResponse struct {
	TotalDebit  json.Number `json:"total_debit"`
	TotalCredit json.Number `json:"total_credit"`
	Balance     json.Number `json:"balance"`
}

type MonthEntryResponse struct {
	Month  int         `json:"month"`
	Debit  json.Number `json:"debit"`
	Credit json.Number `json:"credit"`
}

func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	month, err := queryInt(r, "month")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	year, err := queryInt(r, "year")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	summary, err := h.transactionService.Summary(r.Context(), month, year)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SummaryResponse{
		TotalDebit:  jsonNumber(summary.TotalDebit),
		TotalCredit: jsonNumber(summary.TotalCredit),
		Balance:     jsonNumber(summary.Balance),
	})
}

func (h *ReportHandler) MonthlyChart(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	series, err := h.transactionService.MonthlyChart(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]MonthEntryResponse, 0, len(series))
	for _, entry := range series {
		response = append(response, MonthEntryResponse{
			Month:  entry.Month,
			Debit:  jsonNumber(entry.Debit),
			Credit: jsonNumber(entry.Credit),
		})
	}
	writeJSON(w, http.StatusOK, response)
}
