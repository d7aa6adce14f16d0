package models

import "time"

// Audit actions for privileged mutations.
const (
	AuditActionLogin              = "LOGIN"
	AuditActionLogout             = "LOGOUT"
	AuditActionCreateLead         = "CREATE_LEAD"
	AuditActionUpdateLead         = "UPDATE_LEAD"
	AuditActionUpdateLeadStatus   = "UPDATE_LEAD_STATUS"
	AuditActionDeleteLead         = "DELETE_LEAD"
	AuditActionBulkDeleteLeads    = "BULK_DELETE_LEADS"
	AuditActionMarkCommissionPaid = "MARK_COMMISSION_PAID"
	AuditActionCreateVA           = "CREATE_VA"
	AuditActionCreateVAAccount    = "CREATE_VA_ACCOUNT"
	AuditActionUpdateVACommission = "UPDATE_VA_COMMISSION"
	AuditActionDeleteVAAccount    = "DELETE_VA_ACCOUNT"
	AuditActionActivateUser       = "ACTIVATE_USER"
	AuditActionDeactivateUser     = "DEACTIVATE_USER"
	AuditActionResetPassword      = "RESET_PASSWORD"
	AuditActionCreateInvite       = "CREATE_INVITE"
	AuditActionAcceptInvite       = "ACCEPT_INVITE"
	AuditActionUpdateSetting      = "UPDATE_SETTING"
)

// Resource types referenced by audit entries.
const (
	AuditResourceUser       = "user"
	AuditResourceLead       = "lead"
	AuditResourceCommission = "commission"
	AuditResourceVA         = "va"
	AuditResourceInvite     = "invite"
	AuditResourceSetting    = "setting"
)

// AuditLog is an append-only record of a privileged mutation. UserID is
// nullable: it is cleared when a deleted account's history is anonymized.
type AuditLog struct {
	ID           string
	UserID       *string
	Action       string
	ResourceType *string
	ResourceID   *string
	Details      *string
	IPAddress    *string
	UserAgent    *string
	CreatedAt    time.Time
}
