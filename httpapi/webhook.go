package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"worksflow/agreement"
	"worksflow/event"
	"worksflow/logger"
)

const maxWebhookBodyBytes = 1 << 20 // 1MB

// WebhookHandler receives job lifecycle notifications from the job system.
type WebhookHandler struct {
	svc    *agreement.Service
	secret string
	log    *logger.Logger
}

func NewWebhookHandler(svc *agreement.Service, secret string, log *logger.Logger) *WebhookHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WebhookHandler{svc: svc, secret: secret, log: log}
}

// Receive handles POST deliveries. Signature verification runs before any
// other processing; an unrecognized body is acknowledged as skipped since the
// upstream system sends plenty of non-job events.
func (h *WebhookHandler) Receive(c *gin.Context) {
	if h.secret != "" {
		if c.GetHeader("X-Webhook-Secret") != h.secret {
			h.log.Warn("webhook rejected, bad signature", "remote", c.ClientIP())
			RespondError(c, http.StatusUnauthorized, "invalid_signature", nil)
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_body", err)
		return
	}

	evt, ok := event.Normalize(body)
	if !ok {
		h.log.Debug("webhook skipped, not a job event")
		RespondOK(c, http.StatusOK, gin.H{
			"received": true,
			"outcome":  agreement.OutcomeNotJobEvent,
			"reason":   "not an actionable job event",
		})
		return
	}

	res, err := h.svc.HandleJobEvent(c.Request.Context(), evt)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "pipeline_failure", err)
		return
	}

	payload := gin.H{
		"received": true,
		"outcome":  res.Outcome,
		"reason":   res.Reason,
		"jobId":    evt.JobID,
	}
	if res.Outcome == agreement.OutcomeCreated || res.Outcome == agreement.OutcomeUpdated {
		payload["agreement"] = agreementResponseFrom(*res.Agreement)
	}
	RespondOK(c, http.StatusOK, payload)
}

// Liveness answers GET probes on the webhook path.
func (h *WebhookHandler) Liveness(c *gin.Context) {
	RespondOK(c, http.StatusOK, gin.H{"status": "ok", "service": "works-agreement-webhook"})
}
