// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package kratos

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ory "github.com/ory/client-go"

	"github.com/bizledger/admin-service/internal/logging"
	"github.com/bizledger/admin-service/internal/monitoring"
	"github.com/bizledger/admin-service/internal/tracing"
)

const defaultListPageSize = 250

// NewUserIdentity carries everything needed to provision an account with the
// identity provider. Claims end up in the identity's admin metadata and are
// embedded into tokens on the next refresh.
type NewUserIdentity struct {
	Email       string
	DisplayName string
	// Password is optional; when empty the account starts without a
	// credential and the user sets one through a recovery flow.
	Password string
	Claims   map[string]any
}

// IdentityPage is one page of the admin identity enumeration.
type IdentityPage struct {
	Identities    []ory.Identity
	NextPageToken string
}

type ClientInterface interface {
	GetIdentity(ctx context.Context, id string) (*ory.Identity, error)
	GetIdentityIDByEmail(ctx context.Context, email string) (string, error)
	CreateIdentity(ctx context.Context, user NewUserIdentity) (*ory.Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
	UpdateIdentityClaims(ctx context.Context, identity *ory.Identity, claims map[string]any) error
	ListIdentities(ctx context.Context, pageToken string) (*IdentityPage, error)
	CreateRecoveryLink(ctx context.Context, identityID string, expiresIn string) (string, string, error)
}

type Client struct {
	client  *ory.APIClient
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewClient(kratosAdminURL string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Client {
	conf := ory.NewConfiguration()
	conf.Servers = ory.ServerConfigurations{{URL: kratosAdminURL}}
	return &Client{
		client:  ory.NewAPIClient(conf),
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (c *Client) GetIdentity(ctx context.Context, id string) (*ory.Identity, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.GetIdentity")
	defer span.End()

	identity, r, err := c.client.IdentityAPI.GetIdentity(ctx, id).Execute()
	if err != nil {
		if r != nil && r.StatusCode == http.StatusNotFound {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	return identity, nil
}

func (c *Client) GetIdentityIDByEmail(ctx context.Context, email string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.GetIdentityIDByEmail")
	defer span.End()

	// NOTE: the empty page token works around https://github.com/ory/sdk/issues/461
	ids, r, err := c.client.IdentityAPI.ListIdentities(ctx).CredentialsIdentifier(email).PageToken("").Execute()
	if err != nil {
		if r != nil && r.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to list identities: %w", err)
	}

	if len(ids) == 0 {
		return "", nil
	}

	return ids[0].Id, nil
}

func (c *Client) CreateIdentity(ctx context.Context, user NewUserIdentity) (*ory.Identity, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.CreateIdentity")
	defer span.End()

	traits := map[string]interface{}{
		"email": user.Email,
		"name":  user.DisplayName,
	}

	body := ory.CreateIdentityBody{
		SchemaId:      "default",
		Traits:        traits,
		MetadataAdmin: user.Claims,
	}

	if user.Password != "" {
		password := user.Password
		body.Credentials = &ory.IdentityWithCredentials{
			Password: &ory.IdentityWithCredentialsPassword{
				Config: &ory.IdentityWithCredentialsPasswordConfig{
					Password: &password,
				},
			},
		}
	}

	identity, _, err := c.client.IdentityAPI.CreateIdentity(ctx).CreateIdentityBody(body).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	return identity, nil
}

func (c *Client) DeleteIdentity(ctx context.Context, id string) error {
	ctx, span := c.tracer.Start(ctx, "kratos.DeleteIdentity")
	defer span.End()

	r, err := c.client.IdentityAPI.DeleteIdentity(ctx, id).Execute()
	if err != nil {
		if r != nil && r.StatusCode == http.StatusNotFound {
			return ErrIdentityNotFound
		}
		return fmt.Errorf("failed to delete identity: %w", err)
	}

	return nil
}

// UpdateIdentityClaims replaces the identity's admin metadata with the given
// claim set, preserving schema, traits and state. Merging of claim keys is
// the caller's responsibility: read the identity, merge, then call this.
func (c *Client) UpdateIdentityClaims(ctx context.Context, identity *ory.Identity, claims map[string]any) error {
	ctx, span := c.tracer.Start(ctx, "kratos.UpdateIdentityClaims")
	defer span.End()

	state := ory.IDENTITYSTATE_ACTIVE
	if identity.State != nil {
		state = *identity.State
	}

	traits, _ := identity.Traits.(map[string]interface{})
	if traits == nil {
		traits = map[string]interface{}{}
	}

	body := ory.UpdateIdentityBody{
		SchemaId:      identity.SchemaId,
		Traits:        traits,
		State:         state,
		MetadataAdmin: claims,
	}

	_, r, err := c.client.IdentityAPI.UpdateIdentity(ctx, identity.Id).UpdateIdentityBody(body).Execute()
	if err != nil {
		if r != nil && r.StatusCode == http.StatusNotFound {
			return ErrIdentityNotFound
		}
		return fmt.Errorf("failed to update identity: %w", err)
	}

	return nil
}

func (c *Client) ListIdentities(ctx context.Context, pageToken string) (*IdentityPage, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.ListIdentities")
	defer span.End()

	identities, r, err := c.client.IdentityAPI.ListIdentities(ctx).
		PageSize(defaultListPageSize).
		PageToken(pageToken).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}

	return &IdentityPage{
		Identities:    identities,
		NextPageToken: nextPageToken(r),
	}, nil
}

func (c *Client) CreateRecoveryLink(ctx context.Context, identityID string, expiresIn string) (string, string, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.CreateRecoveryLink")
	defer span.End()

	body := ory.CreateRecoveryCodeForIdentityBody{
		IdentityId: identityID,
		ExpiresIn:  &expiresIn,
	}

	recoveryCode, r, err := c.client.IdentityAPI.CreateRecoveryCodeForIdentity(ctx).CreateRecoveryCodeForIdentityBody(body).Execute()
	if err != nil {
		if r != nil && r.StatusCode == http.StatusNotFound {
			return "", "", ErrIdentityNotFound
		}
		return "", "", fmt.Errorf("failed to create recovery code: %w", err)
	}

	return recoveryCode.RecoveryLink, recoveryCode.RecoveryCode, nil
}

// nextPageToken extracts the page_token of the rel="next" Link header from a
// Kratos list response. Empty when there is no further page.
func nextPageToken(r *http.Response) string {
	if r == nil {
		return ""
	}

	for _, link := range r.Header.Values("Link") {
		for _, part := range strings.Split(link, ",") {
			if !strings.Contains(part, `rel="next"`) {
				continue
			}
			start := strings.Index(part, "<")
			end := strings.Index(part, ">")
			if start == -1 || end == -1 || end <= start {
				continue
			}
			u, err := url.Parse(part[start+1 : end])
			if err != nil {
				continue
			}
			return u.Query().Get("page_token")
		}
	}

	return ""
}
