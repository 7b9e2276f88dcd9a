package auth

import (
	"context"
	"strings"

	"github.com/alanahq/alana-server/internal/apperr"
	"github.com/alanahq/alana-server/internal/logger"
	"github.com/alanahq/alana-server/internal/model"
)

// UserStore is the persistence surface the auth subsystem needs.
// Lookups return (nil, nil) when no user matches.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
}

// Provisioner maps a trusted external identity to exactly one local user,
// creating or reconciling the record.
type Provisioner struct {
	users UserStore
	log   *logger.Logger
}

// NewProvisioner creates a provisioner backed by the given user store.
func NewProvisioner(users UserStore, log *logger.Logger) *Provisioner {
	return &Provisioner{users: users, log: log.WithComponent("provisioner")}
}

// Provision resolves claims to a local user. A new user is created active
// and password-less; an existing user is reconciled with at most one write,
// and only when a field actually changed, so repeated logins with unchanged
// claims write nothing.
func (p *Provisioner) Provision(ctx context.Context, claims *Claims) (*model.User, error) {
	if claims.Email == "" {
		return nil, apperr.MalformedIdentity("email")
	}
	name := displayName(claims)

	user, err := p.users.FindByEmail(ctx, claims.Email)
	if err != nil {
		return nil, apperr.Database(err)
	}

	if user == nil {
		user = &model.User{
			Email:          claims.Email,
			FullName:       name,
			HashedPassword: "", // password login permanently disabled
			IsActive:       true,
			IsVerified:     claims.EmailVerified,
			SSOSubjectID:   claims.Subject,
		}
		if err := p.users.Create(ctx, user); err != nil {
			return nil, apperr.Database(err)
		}
		p.log.Info("provisioned new sso user", logger.Fields(
			logger.FieldUserID, user.ID.String(),
			logger.FieldEmail, user.Email,
		))
		return user, nil
	}

	changed := false
	if name != "" && user.FullName != name {
		user.FullName = name
		changed = true
	}
	if user.SSOSubjectID == "" && claims.Subject != "" {
		user.SSOSubjectID = claims.Subject
		changed = true
	} else if user.SSOSubjectID != "" && claims.Subject != "" && user.SSOSubjectID != claims.Subject {
		// Email is the durable identity anchor; a rotated provider subject
		// is logged but never overwrites the stored value.
		p.log.Warn("provider subject changed for existing user", logger.Fields(
			logger.FieldUserID, user.ID.String(),
			"stored_subject", user.SSOSubjectID,
			"claimed_subject", claims.Subject,
		))
	}
	if user.IsVerified != claims.EmailVerified {
		user.IsVerified = claims.EmailVerified
		changed = true
	}

	if changed {
		if err := p.users.Update(ctx, user); err != nil {
			return nil, apperr.Database(err)
		}
	}
	return user, nil
}

// displayName derives a display name from claims: given and family name
// joined, else the provider's name claim, else the local part of the email,
// else a generic placeholder.
func displayName(claims *Claims) string {
	if claims.GivenName != "" || claims.FamilyName != "" {
		return strings.TrimSpace(claims.GivenName + " " + claims.FamilyName)
	}
	if claims.Name != "" {
		return claims.Name
	}
	if claims.Email != "" {
		if at := strings.Index(claims.Email, "@"); at > 0 {
			return claims.Email[:at]
		}
	}
	return "User"
}
