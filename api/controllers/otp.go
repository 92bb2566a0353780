package controllers

import (
	"net/http"

	"github.com/oakline/oakline-backend/api/responses"
	"github.com/oakline/oakline-backend/api/validators"
	"github.com/oakline/oakline-backend/internal/otp"
	"github.com/oakline/oakline-backend/pkg/config"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
	"github.com/oakline/oakline-backend/pkg/logger"
)

type sendOTPPayload struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

type verifyOTPPayload struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// OTPSend mails a verification code for the registration flow.
func OTPSend(svc otp.Service, brevo config.BrevoConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "otp service unavailable"))
			return
		}

		var payload sendOTPPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Issue(ctx, payload.Email, payload.Name, brevo.RegisterTemplateID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "verification code sent"})
	}
}

// OTPVerify checks a mailed code and marks the email verified.
func OTPVerify(svc otp.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "otp service unavailable"))
			return
		}

		var payload verifyOTPPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Verify(ctx, payload.Email, payload.Code); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "email verified"})
	}
}
