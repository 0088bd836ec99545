package response

import (
	"time"

	"circulation-core/internal/usecase/commands"
	"circulation-core/internal/usecase/queries"

	"github.com/google/uuid"
)

type LoanResponse struct {
	ID           uuid.UUID  `json:"id"`
	CopyID       uuid.UUID  `json:"copyId"`
	BookID       *uuid.UUID `json:"bookId,omitempty"`
	UserID       uuid.UUID  `json:"userId"`
	Status       string     `json:"status"`
	CheckedOutAt time.Time  `json:"checkedOutAt"`
	DueAt        time.Time  `json:"dueAt"`
	ReturnedAt   *time.Time `json:"returnedAt,omitempty"`
	RenewalCount int        `json:"renewalCount"`
	Replayed     bool       `json:"replayed"`
}

type LoanListResponse struct {
	ID           uuid.UUID `json:"id"`
	CopyID       uuid.UUID `json:"copyId"`
	Status       string    `json:"status"`
	CheckedOutAt time.Time `json:"checkedOutAt"`
	DueAt        time.Time `json:"dueAt"`
	RenewalCount int       `json:"renewalCount"`
}

func FromCheckoutResult(r *commands.CheckoutResult) *LoanResponse {
	resp := fromLoanView(r.Loan)
	resp.BookID = r.BookID
	resp.Replayed = r.IsReplayed
	return resp
}

func FromCirculationResult(r *commands.CirculationResult) *LoanResponse {
	resp := fromLoanView(r.Loan)
	resp.Replayed = r.IsReplayed
	return resp
}

func FromLoanView(rm *queries.LoanView) *LoanResponse {
	return fromLoanView(rm)
}

func fromLoanView(rm *queries.LoanView) *LoanResponse {
	return &LoanResponse{
		ID:           rm.ID,
		CopyID:       rm.CopyID,
		UserID:       rm.UserID,
		Status:       rm.Status,
		CheckedOutAt: rm.CheckedOutAt,
		DueAt:        rm.DueAt,
		ReturnedAt:   rm.ReturnedAt,
		RenewalCount: rm.RenewalCount,
	}
}

func FromLoanListItem(rm *queries.LoanView) *LoanListResponse {
	return &LoanListResponse{
		ID:           rm.ID,
		CopyID:       rm.CopyID,
		Status:       rm.Status,
		CheckedOutAt: rm.CheckedOutAt,
		DueAt:        rm.DueAt,
		RenewalCount: rm.RenewalCount,
	}
}
