package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"visitdesk/internal/apperrors"
	"visitdesk/internal/common"
	"visitdesk/internal/models"
	"visitdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

const badgeBucket = "visitor-badges"

// BadgeService generates printable visitor badges. Badge printing is a plan
// feature; tenants without it get an authorization error.
type BadgeService interface {
	PrintBadge(ctx context.Context, caller common.Identity, visitorID uuid.UUID) (string, error)
}

type badgeService struct {
	visitorRepo  repositories.VisitorRepository
	visitLogRepo repositories.VisitLogRepository
	tenantRepo   repositories.TenantRepository
	planRepo     repositories.PlanRepository
	docSvc       DocumentService
}

func NewBadgeService(
	visitorRepo repositories.VisitorRepository,
	visitLogRepo repositories.VisitLogRepository,
	tenantRepo repositories.TenantRepository,
	planRepo repositories.PlanRepository,
	docSvc DocumentService,
) BadgeService {
	return &badgeService{
		visitorRepo:  visitorRepo,
		visitLogRepo: visitLogRepo,
		tenantRepo:   tenantRepo,
		planRepo:     planRepo,
		docSvc:       docSvc,
	}
}

// PrintBadge renders a badge PDF, stores it and returns a presigned download
// URL. The visitor must be inside the building.
func (s *badgeService) PrintBadge(ctx context.Context, caller common.Identity, visitorID uuid.UUID) (string, error) {
	visitor, err := s.visitorRepo.GetByID(ctx, caller.TenantID, visitorID)
	if err != nil {
		return "", apperrors.NotFound("visitor")
	}
	if !visitor.InProgress() {
		return "", apperrors.InvalidTransition(visitor.Status, "print a badge for")
	}

	tenant, err := s.tenantRepo.GetByID(ctx, caller.TenantID)
	if err != nil {
		return "", apperrors.NotFound("tenant")
	}
	if tenant.Subscription.PlanID != nil {
		plan, err := s.planRepo.GetByID(ctx, *tenant.Subscription.PlanID)
		if err == nil && !plan.Features.BadgePrinting {
			return "", apperrors.New(apperrors.CodeAuthorization, "badge printing is not included in the current plan")
		}
	}

	now := time.Now()
	badgeNumber := visitor.Badge.Number
	if badgeNumber == nil {
		n := fmt.Sprintf("V-%s", visitor.ID.String()[:8])
		badgeNumber = &n
	}

	pdfBytes, err := renderBadgePDF(tenant.Name, visitor, *badgeNumber, now)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to render badge", err)
	}

	objectName := fmt.Sprintf("%s/%s.pdf", visitor.TenantID, visitor.ID)
	if err := s.docSvc.EnsureBucketExists(ctx, badgeBucket); err != nil {
		return "", apperrors.Wrap(apperrors.CodeDownstream, "badge storage unavailable", err)
	}
	if err := s.docSvc.Upload(ctx, badgeBucket, objectName, "application/pdf", bytes.NewReader(pdfBytes), int64(len(pdfBytes))); err != nil {
		return "", apperrors.Wrap(apperrors.CodeDownstream, "failed to store badge", err)
	}

	if err := s.visitorRepo.SetBadgePrinted(ctx, visitor.TenantID, visitor.ID, *badgeNumber, now); err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to record badge print", err)
	}

	entry := &models.VisitLog{
		VisitorID:      visitor.ID,
		TenantID:       visitor.TenantID,
		HostID:         visitor.HostID,
		ReceptionistID: visitor.ReceptionistID,
		Action:         models.ActionBadgePrinted,
		PerformedBy:    &caller.UserID,
		Details:        models.JSONB{"badge_number": *badgeNumber},
	}
	if err := s.visitLogRepo.Create(ctx, entry); err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to log badge print", err)
	}

	url, err := s.docSvc.GetPresignedURL(badgeBucket, objectName, 15*time.Minute)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeDownstream, "failed to sign badge URL", err)
	}
	return url, nil
}

func renderBadgePDF(companyName string, visitor *models.Visitor, badgeNumber string, printedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A6", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, companyName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "VISITOR", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, visitor.Name, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Purpose: "+visitor.Purpose, "", 1, "C", false, 0, "")
	if visitor.CheckInTime != nil {
		pdf.CellFormat(0, 6, "Checked in: "+visitor.CheckInTime.Format("02 Jan 2006 15:04"), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, badgeNumber, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, "Printed "+printedAt.Format("02 Jan 2006 15:04"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
