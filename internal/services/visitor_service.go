package services

import (
	"context"
	"log"
	"time"

	"visitdesk/internal/apperrors"
	"visitdesk/internal/caching"
	"visitdesk/internal/common"
	"visitdesk/internal/models"
	"visitdesk/internal/repositories"

	"github.com/google/uuid"
)

// visitorCacheTTL bounds staleness for cached visitor reads; every status
// transition also invalidates the entry explicitly.
const visitorCacheTTL = 5 * time.Minute

// CreateVisitorRequest carries check-in submission input (kiosk, receptionist
// or employee pre-registration).
type CreateVisitorRequest struct {
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Phone          string           `json:"phone"`
	Purpose        string           `json:"purpose"`
	VisitorType    *string          `json:"visitor_type"`
	HostID         uuid.UUID        `json:"host_id"`
	TenantID       *uuid.UUID       `json:"company_id"`
	ReceptionistID *uuid.UUID       `json:"receptionist_id"`
	ScheduledAt    *time.Time       `json:"scheduled_at"`
	Notes          *string          `json:"notes"`
	Metadata       models.JSONB     `json:"metadata"`
}

// UpdateVisitorRequest patches non-identity fields. Lifecycle state is
// deliberately not expressible here: status moves only through
// Approve/Reject/Checkout/MarkNoShow.
type UpdateVisitorRequest struct {
	Name        *string      `json:"name"`
	Email       *string      `json:"email"`
	Phone       *string      `json:"phone"`
	Purpose     *string      `json:"purpose"`
	VisitorType *string      `json:"visitor_type"`
	ScheduledAt *time.Time   `json:"scheduled_at"`
	Notes       *string      `json:"notes"`
	Metadata    models.JSONB `json:"metadata"`
}

// VisitorService owns the visitor lifecycle: it validates and applies every
// status transition and keeps dependent fields consistent with it.
type VisitorService interface {
	Create(ctx context.Context, req *CreateVisitorRequest) (*models.Visitor, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Visitor, error)
	List(ctx context.Context, tenantID uuid.UUID, filter *models.VisitorSearchFilter) ([]*models.Visitor, error)
	Approve(ctx context.Context, caller common.Identity, id uuid.UUID) (*models.Visitor, error)
	Reject(ctx context.Context, caller common.Identity, id uuid.UUID, reason string) (*models.Visitor, error)
	CheckoutByID(ctx context.Context, tenantID, id uuid.UUID, performedBy *uuid.UUID) (*models.Visitor, error)
	CheckoutByContact(ctx context.Context, tenantID uuid.UUID, phoneOrEmail string) (*models.Visitor, error)
	MarkNoShow(ctx context.Context, caller common.Identity, id uuid.UUID) (*models.Visitor, error)
	Update(ctx context.Context, caller common.Identity, id uuid.UUID, req *UpdateVisitorRequest) (*models.Visitor, error)
	Delete(ctx context.Context, caller common.Identity, id uuid.UUID) error
}

type visitorService struct {
	visitorRepo  repositories.VisitorRepository
	visitLogRepo repositories.VisitLogRepository
	userRepo     repositories.UserRepository
	tenantSvc    TenantService
	notifySvc    NotificationService
	cacheSvc     caching.CacheService
	now          func() time.Time
}

func NewVisitorService(
	visitorRepo repositories.VisitorRepository,
	visitLogRepo repositories.VisitLogRepository,
	userRepo repositories.UserRepository,
	tenantSvc TenantService,
	notifySvc NotificationService,
	cacheSvc caching.CacheService,
) VisitorService {
	return &visitorService{
		visitorRepo:  visitorRepo,
		visitLogRepo: visitLogRepo,
		userRepo:     userRepo,
		tenantSvc:    tenantSvc,
		notifySvc:    notifySvc,
		cacheSvc:     cacheSvc,
		now:          time.Now,
	}
}

func (s *visitorService) validateCreate(req *CreateVisitorRequest) error {
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return apperrors.Validation("name", err.Error())
	}
	if err := common.ValidateEmail(req.Email, "email"); err != nil {
		return apperrors.Validation("email", err.Error())
	}
	if err := common.ValidatePhone(req.Phone, "phone"); err != nil {
		return apperrors.Validation("phone", err.Error())
	}
	if err := common.ValidateRequiredString(req.Purpose, "purpose"); err != nil {
		return apperrors.Validation("purpose", err.Error())
	}
	if req.HostID == uuid.Nil {
		return apperrors.Validation("host_id", "host_id is required")
	}
	return nil
}

func (s *visitorService) Create(ctx context.Context, req *CreateVisitorRequest) (*models.Visitor, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	host, err := s.userRepo.GetByID(ctx, req.HostID)
	if err != nil {
		return nil, apperrors.NotFound("host")
	}
	if !host.IsActive {
		return nil, apperrors.NotFound("host")
	}
	if host.TenantID == nil {
		// Superadmin users have no tenant; a visitor must always belong to one.
		return nil, apperrors.Validation("host_id", "host has no company")
	}

	tenantID := *host.TenantID
	if req.TenantID != nil {
		if *req.TenantID != tenantID {
			return nil, apperrors.Validation("company_id", "company does not match host's company")
		}
		tenantID = *req.TenantID
	}

	if _, err := s.tenantSvc.RequireActive(ctx, tenantID); err != nil {
		return nil, err
	}
	if err := s.tenantSvc.ConsumeLimit(ctx, tenantID, models.LimitMonthlyVisitors, 1); err != nil {
		return nil, err
	}

	now := s.now()
	status := models.VisitorPending
	action := models.ActionCreated
	if req.ScheduledAt != nil && req.ScheduledAt.After(now) {
		status = models.VisitorScheduled
		action = models.ActionScheduled
	}

	visitor := &models.Visitor{
		ID:             uuid.New(),
		TenantID:       tenantID,
		HostID:         host.ID,
		ReceptionistID: req.ReceptionistID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Purpose:        req.Purpose,
		VisitorType:    req.VisitorType,
		ScheduledAt:    req.ScheduledAt,
		Status:         status,
		Notes:          req.Notes,
		Metadata:       req.Metadata,
	}

	if err := s.visitorRepo.Create(ctx, visitor); err != nil {
		// Give the consumed slot back; the visitor was never stored.
		if relErr := s.tenantSvc.ReleaseLimit(ctx, tenantID, models.LimitMonthlyVisitors, 1); relErr != nil {
			log.Printf("Failed to release visitor slot for tenant %s: %v", tenantID, relErr)
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create visitor", err)
	}

	s.appendLog(ctx, visitor, action, req.ReceptionistID, nil, nil)
	s.notifyAsync(tenantID, host, visitor, models.EventVisitorCreated, true)

	return visitor, nil
}

func (s *visitorService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Visitor, error) {
	if cached, err := s.cacheSvc.GetVisitor(ctx, tenantID, id); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		log.Printf("Visitor cache read failed (visitor=%s): %v", id, err)
	}

	visitor, err := s.visitorRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, apperrors.NotFound("visitor")
	}
	if err := s.cacheSvc.SetVisitor(ctx, tenantID, visitor, visitorCacheTTL); err != nil {
		log.Printf("Visitor cache write failed (visitor=%s): %v", id, err)
	}
	return visitor, nil
}

// invalidateCache drops the cached copy after a write so the next read sees
// the committed row. Best-effort: the TTL bounds staleness if this fails.
func (s *visitorService) invalidateCache(ctx context.Context, tenantID, id uuid.UUID) {
	if err := s.cacheSvc.DeleteVisitor(ctx, tenantID, id); err != nil {
		log.Printf("Visitor cache invalidation failed (visitor=%s): %v", id, err)
	}
}

func (s *visitorService) List(ctx context.Context, tenantID uuid.UUID, filter *models.VisitorSearchFilter) ([]*models.Visitor, error) {
	return s.visitorRepo.List(ctx, tenantID, filter)
}

// canDecide reports whether the caller may approve or reject the visitor:
// the host themselves, or an admin-role actor of the same tenant.
func canDecide(caller common.Identity, visitor *models.Visitor) bool {
	if caller.Role == models.RoleSuperadmin {
		return true
	}
	if caller.TenantID != visitor.TenantID {
		return false
	}
	return caller.Role == models.RoleCompanyAdmin || caller.UserID == visitor.HostID
}

func (s *visitorService) Approve(ctx context.Context, caller common.Identity, id uuid.UUID) (*models.Visitor, error) {
	visitor, err := s.visitorRepo.GetByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, apperrors.NotFound("visitor")
	}
	if !canDecide(caller, visitor) {
		return nil, apperrors.New(apperrors.CodeAuthorization, "not allowed to approve this visitor")
	}

	at := s.now()
	applied, err := s.visitorRepo.Approve(ctx, visitor.TenantID, id, caller.UserID, at)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to approve visitor", err)
	}
	if !applied {
		// The conditional update lost: the visitor is no longer in a legal
		// predecessor state. Re-read for an accurate error.
		current, err := s.visitorRepo.GetByID(ctx, visitor.TenantID, id)
		if err != nil {
			return nil, apperrors.NotFound("visitor")
		}
		return nil, apperrors.InvalidTransition(current.Status, "approve")
	}

	visitor, err = s.visitorRepo.GetByID(ctx, visitor.TenantID, id)
	if err != nil {
		return nil, apperrors.NotFound("visitor")
	}

	s.invalidateCache(ctx, visitor.TenantID, id)
	s.appendLog(ctx, visitor, models.ActionApproved, &caller.UserID, nil, nil)
	s.appendLog(ctx, visitor, models.ActionCheckedIn, &caller.UserID, nil, nil)
	s.notifyAsync(visitor.TenantID, nil, visitor, models.EventVisitorApproved, false)

	return visitor, nil
}

func (s *visitorService) Reject(ctx context.Context, caller common.Identity, id uuid.UUID, reason string) (*models.Visitor, error) {
	if err := common.ValidateRequiredString(reason, "rejection_reason"); err != nil {
		return nil, apperrors.Validation("rejection_reason", "rejection reason is required")
	}

	visitor, err := s.visitorRepo.GetByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, apperrors.NotFound("visitor")
	}
	if !canDecide(caller, visitor) {
		return nil, apperrors.New(apperrors.CodeAuthorization, "not allowed to reject this visitor")
	}

	applied, err := s.visitorRepo.Reject(ctx, visitor.TenantID, id, reason, caller.UserID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to reject visitor", err)
	}
	if !applied {
		current, err := s.visitorRepo.GetByID(ctx, visitor.TenantID, id)
		if err != nil {
			return nil, apperrors.NotFound("visitor")
		}
		return nil, apperrors.InvalidTransition(current.Status, "reject")
	}

	visitor, err = s.visitorRepo.GetByID(ctx, visitor.TenantID, id)
	if err != nil {
		return nil, apperrors.NotFound("visitor")
	}

	s.invalidateCache(ctx, visitor.TenantID, id)
	s.appendLog(ctx, visitor, models.ActionRejected, &caller.UserID, models.JSONB{"reason": reason}, nil)
	s.notifyAsync(visitor.TenantID, nil, visitor, models.EventVisitorRejected, false)

	return visitor, nil
}

func (s *visitorService) CheckoutByID(ctx context.Context, tenantID, id uuid.UUID, performedBy *uuid.UUID) (*models.Visitor, error) {
	visitor, err := s.visitorRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, apperrors.NotFound("visitor")
	}

	at := s.now()
	applied, err := s.visitorRepo.Checkout(ctx, tenantID, id, at)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check out visitor", err)
	}
	if !applied {
		current, err := s.visitorRepo.GetByID(ctx, tenantID, id)
		if err != nil {
			return nil, apperrors.NotFound("visitor")
		}
		return nil, apperrors.InvalidTransition(current.Status, "check out")
	}

	visitor, err = s.visitorRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, apperrors.NotFound("visitor")
	}

	var duration *int
	if visitor.CheckInTime != nil && visitor.CheckOutTime != nil {
		minutes := int(visitor.CheckOutTime.Sub(*visitor.CheckInTime).Minutes())
		duration = &minutes
	}
	s.invalidateCache(ctx, tenantID, id)
	s.appendLog(ctx, visitor, models.ActionCheckedOut, performedBy, nil, duration)
	s.notifyAsync(visitor.TenantID, nil, visitor, models.EventVisitorCheckedOut, false)

	return visitor, nil
}

func (s *visitorService) CheckoutByContact(ctx context.Context, tenantID uuid.UUID, phoneOrEmail string) (*models.Visitor, error) {
	if err := common.ValidateRequiredString(phoneOrEmail, "phone_or_email"); err != nil {
		return nil, apperrors.Validation("phone_or_email", err.Error())
	}

	matches, err := s.visitorRepo.FindInProgressByContact(ctx, tenantID, phoneOrEmail)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to look up visitor", err)
	}
	switch len(matches) {
	case 0:
		return nil, apperrors.NotFound("in-progress visitor")
	case 1:
		return s.CheckoutByID(ctx, tenantID, matches[0].ID, nil)
	default:
		// Shared contact values (front-desk phones) can match several active
		// visits; surface the ambiguity instead of silently picking one.
		return nil, apperrors.Newf(apperrors.CodeAmbiguousMatch,
			"%d visitors currently inside match this contact; check out by visitor id", len(matches))
	}
}

func (s *visitorService) MarkNoShow(ctx context.Context, caller common.Identity, id uuid.UUID) (*models.Visitor, error) {
	visitor, err := s.visitorRepo.GetByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, apperrors.NotFound("visitor")
	}
	if !canDecide(caller, visitor) {
		return nil, apperrors.New(apperrors.CodeAuthorization, "not allowed to update this visitor")
	}

	applied, err := s.visitorRepo.MarkNoShow(ctx, visitor.TenantID, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to mark no-show", err)
	}
	if !applied {
		current, err := s.visitorRepo.GetByID(ctx, visitor.TenantID, id)
		if err != nil {
			return nil, apperrors.NotFound("visitor")
		}
		return nil, apperrors.InvalidTransition(current.Status, "mark no-show for")
	}

	visitor, err = s.visitorRepo.GetByID(ctx, visitor.TenantID, id)
	if err != nil {
		return nil, apperrors.NotFound("visitor")
	}
	s.invalidateCache(ctx, visitor.TenantID, id)
	s.appendLog(ctx, visitor, models.ActionNoShow, &caller.UserID, nil, nil)
	return visitor, nil
}

func (s *visitorService) Update(ctx context.Context, caller common.Identity, id uuid.UUID, req *UpdateVisitorRequest) (*models.Visitor, error) {
	visitor, err := s.visitorRepo.GetByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, apperrors.NotFound("visitor")
	}

	if req.Name != nil {
		if err := common.ValidateRequiredString(*req.Name, "name"); err != nil {
			return nil, apperrors.Validation("name", err.Error())
		}
		visitor.Name = *req.Name
	}
	if req.Email != nil {
		if err := common.ValidateEmail(*req.Email, "email"); err != nil {
			return nil, apperrors.Validation("email", err.Error())
		}
		visitor.Email = *req.Email
	}
	if req.Phone != nil {
		if err := common.ValidatePhone(*req.Phone, "phone"); err != nil {
			return nil, apperrors.Validation("phone", err.Error())
		}
		visitor.Phone = *req.Phone
	}
	if req.Purpose != nil {
		visitor.Purpose = *req.Purpose
	}
	if req.VisitorType != nil {
		visitor.VisitorType = req.VisitorType
	}
	if req.ScheduledAt != nil {
		visitor.ScheduledAt = req.ScheduledAt
	}
	if req.Notes != nil {
		visitor.Notes = req.Notes
	}
	if req.Metadata != nil {
		visitor.Metadata = req.Metadata
	}

	if err := s.visitorRepo.Update(ctx, visitor); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to update visitor", err)
	}
	s.invalidateCache(ctx, caller.TenantID, id)
	return visitor, nil
}

func (s *visitorService) Delete(ctx context.Context, caller common.Identity, id uuid.UUID) error {
	if caller.Role != models.RoleCompanyAdmin && caller.Role != models.RoleSuperadmin {
		return apperrors.New(apperrors.CodeAuthorization, "only admins may delete visitors")
	}
	visitor, err := s.visitorRepo.GetByID(ctx, caller.TenantID, id)
	if err != nil {
		return apperrors.NotFound("visitor")
	}
	// The audit row survives the delete: visit_logs reference the visitor by
	// id only and are never removed with it.
	s.appendLog(ctx, visitor, models.ActionCancelled, &caller.UserID, nil, nil)
	if err := s.visitorRepo.Delete(ctx, caller.TenantID, id); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to delete visitor", err)
	}
	s.invalidateCache(ctx, caller.TenantID, id)
	return nil
}

// appendLog records one audit row for the action. The transition has already
// committed, so a failed append is logged and does not fail the operation.
func (s *visitorService) appendLog(ctx context.Context, visitor *models.Visitor, action string, performedBy *uuid.UUID, details models.JSONB, duration *int) {
	entry := &models.VisitLog{
		VisitorID:       visitor.ID,
		TenantID:        visitor.TenantID,
		HostID:          visitor.HostID,
		ReceptionistID:  visitor.ReceptionistID,
		Action:          action,
		PerformedBy:     performedBy,
		Details:         details,
		DurationMinutes: duration,
	}
	if err := s.visitLogRepo.Create(ctx, entry); err != nil {
		log.Printf("Failed to append visit log (visitor=%s action=%s): %v", visitor.ID, action, err)
	}
}

// notifyAsync dispatches a notification without blocking or failing the
// calling transition.
func (s *visitorService) notifyAsync(tenantID uuid.UUID, host *models.User, visitor *models.Visitor, event string, toHost bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var err error
		if toHost {
			h := host
			if h == nil {
				h, err = s.userRepo.GetByID(ctx, visitor.HostID)
				if err != nil {
					log.Printf("Notification skipped, host lookup failed: %v", err)
					return
				}
			}
			err = s.notifySvc.NotifyHost(ctx, tenantID, h, visitor, event)
		} else {
			err = s.notifySvc.NotifyVisitor(ctx, tenantID, visitor, event)
		}
		if err != nil {
			log.Printf("Notification delivery failed (event=%s visitor=%s): %v", event, visitor.ID, err)
		}
	}()
}
