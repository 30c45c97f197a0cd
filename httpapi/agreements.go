package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"worksflow/agreement"
	"worksflow/logger"
	"worksflow/schedule"
)

// AgreementsHandler exposes the manual agreement API. It shares the store and
// the schedule synthesizer with the webhook path through CRUDService.
type AgreementsHandler struct {
	svc *agreement.CRUDService
	log *logger.Logger
}

func NewAgreementsHandler(svc *agreement.CRUDService, log *logger.Logger) *AgreementsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AgreementsHandler{svc: svc, log: log}
}

type scheduleEntryResponse struct {
	Stage    string  `json:"stage"`
	Amount   float64 `json:"amount"`
	Position int     `json:"position"`
}

type agreementResponse struct {
	JobID        string                  `json:"jobId"`
	JobNumber    string                  `json:"jobNumber"`
	JobName      string                  `json:"jobName"`
	ClientName   string                  `json:"clientName"`
	SiteAddress  string                  `json:"siteAddress"`
	SiteName     string                  `json:"siteName"`
	InitialWorks string                  `json:"initialWorks"`
	ColourScheme string                  `json:"colourScheme"`
	TotalIncGst  float64                 `json:"totalIncGst"`
	Schedule     []scheduleEntryResponse `json:"paymentSchedule"`
	IssueDate    string                  `json:"issueDate"`
	Status       string                  `json:"status"`
	Provenance   string                  `json:"provenance"`
	CreatedAt    string                  `json:"createdAt"`
}

func agreementResponseFrom(rec agreement.WorksAgreement) agreementResponse {
	entries := make([]scheduleEntryResponse, 0, len(rec.Schedule))
	for _, e := range rec.Schedule {
		entries = append(entries, scheduleEntryResponse{
			Stage:    e.Stage,
			Amount:   schedule.ToMajor(e.AmountCents),
			Position: e.Position,
		})
	}
	createdAt := ""
	if !rec.CreatedAt.IsZero() {
		createdAt = rec.CreatedAt.UTC().Format(time.RFC3339)
	}
	return agreementResponse{
		JobID:        rec.JobID,
		JobNumber:    rec.JobNumber,
		JobName:      rec.JobName,
		ClientName:   rec.ClientName,
		SiteAddress:  rec.SiteAddress,
		SiteName:     rec.SiteName,
		InitialWorks: rec.InitialWorks,
		ColourScheme: rec.ColourScheme,
		TotalIncGst:  schedule.ToMajor(rec.TotalCents),
		Schedule:     entries,
		IssueDate:    rec.IssueDate,
		Status:       rec.Status,
		Provenance:   string(rec.Provenance),
		CreatedAt:    createdAt,
	}
}

type createAgreementRequest struct {
	JobID        string  `json:"jobId"`
	JobNumber    string  `json:"jobNumber"`
	JobName      string  `json:"jobName"`
	ClientName   string  `json:"clientName"`
	SiteAddress  string  `json:"siteAddress"`
	SiteName     string  `json:"siteName"`
	InitialWorks string  `json:"initialWorks"`
	ColourScheme string  `json:"colourScheme"`
	TotalIncGst  float64 `json:"totalIncGst"`
	IssueDate    string  `json:"issueDate"`
}

type updateAgreementRequest struct {
	JobNumber    *string  `json:"jobNumber"`
	JobName      *string  `json:"jobName"`
	ClientName   *string  `json:"clientName"`
	SiteAddress  *string  `json:"siteAddress"`
	SiteName     *string  `json:"siteName"`
	InitialWorks *string  `json:"initialWorks"`
	ColourScheme *string  `json:"colourScheme"`
	TotalIncGst  *float64 `json:"totalIncGst"`
	IssueDate    *string  `json:"issueDate"`
}

// GET /agreements
func (h *AgreementsHandler) List(c *gin.Context) {
	records, err := h.svc.List(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	items := make([]agreementResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, agreementResponseFrom(rec))
	}
	RespondOK(c, http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// GET /agreements/:jobId
func (h *AgreementsHandler) Get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		if errors.Is(err, agreement.ErrAgreementNotFound) {
			RespondError(c, http.StatusNotFound, "agreement_not_found", nil)
			return
		}
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"agreement": agreementResponseFrom(rec)})
}

// POST /agreements
func (h *AgreementsHandler) Create(c *gin.Context) {
	var req createAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	rec, err := h.svc.Create(c.Request.Context(), operatorID(c), agreement.CreateParams{
		JobID:        req.JobID,
		JobNumber:    req.JobNumber,
		JobName:      req.JobName,
		ClientName:   req.ClientName,
		SiteAddress:  req.SiteAddress,
		SiteName:     req.SiteName,
		InitialWorks: req.InitialWorks,
		ColourScheme: req.ColourScheme,
		TotalIncGst:  req.TotalIncGst,
		IssueDate:    req.IssueDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, agreement.ErrJobIDRequired), errors.Is(err, agreement.ErrTotalRequired):
			RespondError(c, http.StatusBadRequest, "validation_failed", err)
		case errors.Is(err, agreement.ErrAgreementExists):
			payload := gin.H{"error": "agreement_exists"}
			if existing, getErr := h.svc.Get(c.Request.Context(), req.JobID); getErr == nil {
				payload["existing"] = agreementResponseFrom(existing)
			}
			c.AbortWithStatusJSON(http.StatusConflict, payload)
		default:
			RespondError(c, http.StatusInternalServerError, "create_failed", err)
		}
		return
	}

	RespondOK(c, http.StatusCreated, gin.H{"agreement": agreementResponseFrom(rec)})
}

// PATCH /agreements/:jobId
func (h *AgreementsHandler) Update(c *gin.Context) {
	var req updateAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	rec, err := h.svc.Update(c.Request.Context(), operatorID(c), c.Param("jobId"), agreement.UpdateParams{
		JobNumber:    req.JobNumber,
		JobName:      req.JobName,
		ClientName:   req.ClientName,
		SiteAddress:  req.SiteAddress,
		SiteName:     req.SiteName,
		InitialWorks: req.InitialWorks,
		ColourScheme: req.ColourScheme,
		TotalIncGst:  req.TotalIncGst,
		IssueDate:    req.IssueDate,
	})
	if err != nil {
		if errors.Is(err, agreement.ErrAgreementNotFound) {
			RespondError(c, http.StatusNotFound, "agreement_not_found", nil)
			return
		}
		RespondError(c, http.StatusInternalServerError, "update_failed", err)
		return
	}

	RespondOK(c, http.StatusOK, gin.H{"agreement": agreementResponseFrom(rec)})
}

// DELETE /agreements/:jobId
func (h *AgreementsHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), operatorID(c), c.Param("jobId")); err != nil {
		if errors.Is(err, agreement.ErrAgreementNotFound) {
			RespondError(c, http.StatusNotFound, "agreement_not_found", nil)
			return
		}
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
