package authkit

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventRegisterSuccess       = "register_success"
	auditEventRegisterFailure       = "register_failure"
	auditEventBootstrapVerified     = "bootstrap_verified"
	auditEventBootstrapRejected     = "bootstrap_rejected"
	auditEventBootstrapSkipped      = "bootstrap_skipped"
	auditEventRefreshSuccess        = "refresh_success"
	auditEventRefreshFailure        = "refresh_failure"
	auditEventRefreshStaleDiscarded = "refresh_stale_discarded"
	auditEventSessionReset          = "session_reset"
	auditEventLogout                = "logout"
	auditEventGatewayAuthRetry      = "gateway_auth_retry"
	auditEventGatewayAuthFailure    = "gateway_auth_failure"
)

// AuditErrorCode is the normalized error label carried in audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrValidation         AuditErrorCode = "validation_failed"
	auditErrConflict           AuditErrorCode = "duplicate"
	auditErrNoRefreshToken     AuditErrorCode = "no_refresh_token"
	auditErrSessionExpired     AuditErrorCode = "session_expired"
	auditErrNetwork            AuditErrorCode = "network_failure"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrMalformed          AuditErrorCode = "malformed_response"
	auditErrCanceled           AuditErrorCode = "canceled"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (c *Client) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	status SessionStatus,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		RequestID: requestIDFromContext(ctx),
		Status:    status.String(),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrConflict):
		return auditErrConflict
	case errors.Is(err, ErrNoRefreshToken):
		return auditErrNoRefreshToken
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrNetwork):
		return auditErrNetwork
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrMalformedResponse):
		return auditErrMalformed
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	default:
		return auditErrInternal
	}
}
