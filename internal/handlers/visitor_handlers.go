package handlers

import (
	"net/http"
	"strconv"
	"time"

	"visitdesk/internal/common"
	"visitdesk/internal/models"
	"visitdesk/internal/repositories"
	"visitdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const documentBucket = "visitor-documents"

// VisitorHandlers handles visitor lifecycle HTTP requests
type VisitorHandlers struct {
	visitorService services.VisitorService
	badgeService   services.BadgeService
	documentSvc    services.DocumentService
	visitorRepo    repositories.VisitorRepository
	visitLogRepo   repositories.VisitLogRepository
}

func NewVisitorHandlers(visitorService services.VisitorService, badgeService services.BadgeService,
	documentSvc services.DocumentService, visitorRepo repositories.VisitorRepository,
	visitLogRepo repositories.VisitLogRepository) *VisitorHandlers {
	return &VisitorHandlers{
		visitorService: visitorService,
		badgeService:   badgeService,
		documentSvc:    documentSvc,
		visitorRepo:    visitorRepo,
		visitLogRepo:   visitLogRepo,
	}
}

// Create registers a walk-in or pre-scheduled visitor. The initial status is
// derived server-side: pending for walk-ins, scheduled when a future
// scheduled_at is given. A status field in the request body is ignored, and
// later changes go only through the approval, checkout and no-show endpoints.
func (h *VisitorHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req services.CreateVisitorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	// Authenticated callers create for their own company; the kiosk route
	// carries no identity and the company is derived from the host.
	if tenantID, ok := common.GetTenantIDFromContext(ctx); ok && tenantID != uuid.Nil {
		req.TenantID = &tenantID
	}
	if userID, ok := common.GetUserIDFromContext(ctx); ok {
		if role, _ := common.GetRoleFromContext(ctx); role == models.RoleReceptionist {
			req.ReceptionistID = &userID
		}
	}

	visitor, err := h.visitorService.Create(ctx, &req)
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusCreated, visitor)
}

// Get returns a single visitor.
func (h *VisitorHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	visitor, err := h.visitorService.GetByID(ctx, tenantID, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, visitor)
}

// List returns visitors for the caller's company, filtered and paginated.
// Tenant scope always comes from the token, never from query parameters.
func (h *VisitorHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	filter := &models.VisitorSearchFilter{
		Query: c.QueryParam("q"),
	}
	if status := c.QueryParam("status"); status != "" {
		if !models.ValidVisitorStatus(status) {
			return common.SendValidationError(c, "status", "unknown visitor status")
		}
		filter.Status = &status
	}
	if hostStr := c.QueryParam("host_id"); hostStr != "" {
		hostID, err := common.ValidateUUID(hostStr, "host_id")
		if err != nil {
			return common.SendValidationError(c, "host_id", err.Error())
		}
		filter.HostID = &hostID
	}
	if vt := c.QueryParam("visitor_type"); vt != "" {
		filter.VisitorType = &vt
	}
	if fromStr := c.QueryParam("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return common.SendValidationError(c, "from", "must be RFC3339")
		}
		filter.From = &from
	}
	if toStr := c.QueryParam("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return common.SendValidationError(c, "to", "must be RFC3339")
		}
		filter.To = &to
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	filter.Limit, filter.Offset = common.ValidatePaginationParams(limit, offset)

	visitors, err := h.visitorService.List(ctx, tenantID, filter)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"visitors": visitors,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

// ApprovalRequest is the host's decision on a pending visitor.
type ApprovalRequest struct {
	Approved        bool   `json:"approved"`
	RejectionReason string `json:"rejection_reason"`
}

// Decide approves or rejects a pending visitor. Approval checks the visitor
// in; rejection requires a reason.
func (h *VisitorHandlers) Decide(c echo.Context) error {
	ctx := c.Request().Context()

	caller, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req ApprovalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	var visitor *models.Visitor
	if req.Approved {
		visitor, err = h.visitorService.Approve(ctx, caller, id)
	} else {
		visitor, err = h.visitorService.Reject(ctx, caller, id, req.RejectionReason)
	}
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, visitor)
}

// Checkout checks out a visitor by id.
func (h *VisitorHandlers) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var performedBy *uuid.UUID
	if userID, ok := common.GetUserIDFromContext(ctx); ok {
		performedBy = &userID
	}

	visitor, err := h.visitorService.CheckoutByID(ctx, tenantID, id, performedBy)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, visitor)
}

// KioskCheckoutRequest is the self-service checkout payload.
type KioskCheckoutRequest struct {
	CompanyID    string `json:"company_id"`
	PhoneOrEmail string `json:"phone_or_email"`
}

// KioskCheckout checks out the single in-progress visitor matching the given
// phone or email. Multiple matches are reported back so the kiosk can ask
// for the visitor id instead.
func (h *VisitorHandlers) KioskCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	var req KioskCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	tenantID, err := common.ValidateUUID(req.CompanyID, "company_id")
	if err != nil {
		return common.SendValidationError(c, "company_id", err.Error())
	}

	visitor, err := h.visitorService.CheckoutByContact(ctx, tenantID, req.PhoneOrEmail)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, visitor)
}

// MarkNoShow flags a visitor who never arrived.
func (h *VisitorHandlers) MarkNoShow(c echo.Context) error {
	ctx := c.Request().Context()

	caller, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	visitor, err := h.visitorService.MarkNoShow(ctx, caller, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, visitor)
}

// Update patches visitor profile fields. Status is not patchable here.
func (h *VisitorHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()

	caller, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req services.UpdateVisitorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	visitor, err := h.visitorService.Update(ctx, caller, id, &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, visitor)
}

// Delete removes a visitor record (admin only).
func (h *VisitorHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	caller, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.visitorService.Delete(ctx, caller, id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// PrintBadge renders the visitor badge PDF and returns a download URL.
func (h *VisitorHandlers) PrintBadge(c echo.Context) error {
	ctx := c.Request().Context()

	caller, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	url, err := h.badgeService.PrintBadge(ctx, caller, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"badge_url": url})
}

// UploadDocument stores a visitor photo, id proof or signature and records
// the object key on the visitor.
func (h *VisitorHandlers) UploadDocument(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	kind := c.FormValue("kind")
	switch kind {
	case "photo", "id_proof", "signature":
	default:
		return common.SendValidationError(c, "kind", "kind must be photo, id_proof or signature")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "file is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read uploaded file")
	}
	defer src.Close()

	visitor, err := h.visitorRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return common.SendNotFoundError(c, "visitor")
	}

	objectName := tenantID.String() + "/" + id.String() + "/" + kind
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.documentSvc.Upload(ctx, documentBucket, objectName, contentType, src, fileHeader.Size); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to store document")
	}

	docs := visitor.Documents
	switch kind {
	case "photo":
		docs.PhotoKey = &objectName
	case "id_proof":
		docs.IDProofKey = &objectName
	case "signature":
		docs.SignatureKey = &objectName
	}
	if err := h.visitorRepo.SetDocuments(ctx, tenantID, id, &docs); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to record document")
	}

	return c.JSON(http.StatusOK, map[string]string{"object_key": objectName})
}

// History returns the full audit trail for one visitor.
func (h *VisitorHandlers) History(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	logs, err := h.visitLogRepo.GetByVisitor(ctx, tenantID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load visit history")
	}
	return c.JSON(http.StatusOK, logs)
}
