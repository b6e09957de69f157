package ninjarmm

import (
	"context"
	"net/http"
	"net/url"

	"github.com/oapi-codegen/runtime"
)

// Organization is a NinjaOne organization.
type Organization struct {
	ID               int                       `json:"id"`
	Name             string                    `json:"name,omitempty"`
	Description      string                    `json:"description,omitempty"`
	NodeApprovalMode string                    `json:"nodeApprovalMode,omitempty"`
	Tags             []string                  `json:"tags,omitempty"`
	Fields           map[string]map[string]any `json:"fields,omitempty"`
}

// Device is a managed device summary.
type Device struct {
	ID             int     `json:"id"`
	ParentDeviceID int     `json:"parentDeviceId,omitempty"`
	OrganizationID int     `json:"organizationId,omitempty"`
	LocationID     int     `json:"locationId,omitempty"`
	NodeClass      string  `json:"nodeClass,omitempty"`
	NodeRoleID     int     `json:"nodeRoleId,omitempty"`
	RolePolicyID   int     `json:"rolePolicyId,omitempty"`
	PolicyID       int     `json:"policyId,omitempty"`
	ApprovalStatus string  `json:"approvalStatus,omitempty"`
	Offline        bool    `json:"offline,omitempty"`
	DisplayName    string  `json:"displayName,omitempty"`
	SystemName     string  `json:"systemName,omitempty"`
	DNSName        string  `json:"dnsName,omitempty"`
	Created        float64 `json:"created,omitempty"`
	LastContact    float64 `json:"lastContact,omitempty"`
	LastUpdate     float64 `json:"lastUpdate,omitempty"`
}

// Policy is a device policy.
type Policy struct {
	ID               int                       `json:"id"`
	ParentPolicyID   int                       `json:"parentPolicyId,omitempty"`
	Name             string                    `json:"name,omitempty"`
	Description      string                    `json:"description,omitempty"`
	NodeClass        string                    `json:"nodeClass,omitempty"`
	Updated          float64                   `json:"updated,omitempty"`
	NodeClassDefault bool                      `json:"nodeClassDefault,omitempty"`
	Tags             []string                  `json:"tags,omitempty"`
	Fields           map[string]map[string]any `json:"fields,omitempty"`
}

// ListParams page through list endpoints.
type ListParams struct {
	// PageSize limits the number of results. Zero uses the server default.
	PageSize int
	// After is the last ID of the previous page.
	After int
}

// DeviceListParams filter GetDevices.
type DeviceListParams struct {
	ListParams
	// DeviceFilter is a device filter expression, e.g. "org = 1".
	DeviceFilter string
}

// GetOrganizations lists organizations.
func (c *Client) GetOrganizations(ctx context.Context, params *ListParams) ([]Organization, error) {
	q, err := listQuery(params)
	if err != nil {
		return nil, err
	}

	var out []Organization
	if err := c.Do(ctx, http.MethodGet, "/v2/organizations", q, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrganization fetches one organization.
func (c *Client) GetOrganization(ctx context.Context, id int) (*Organization, error) {
	pathID, err := runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, id)
	if err != nil {
		return nil, err
	}

	var out Organization
	if err := c.Do(ctx, http.MethodGet, "/v2/organization/"+pathID, nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDevices lists devices.
func (c *Client) GetDevices(ctx context.Context, params *DeviceListParams) ([]Device, error) {
	var q url.Values
	if params != nil {
		var err error
		if q, err = listQuery(&params.ListParams); err != nil {
			return nil, err
		}
		if params.DeviceFilter != "" {
			if err := addQueryParam(q, "df", params.DeviceFilter); err != nil {
				return nil, err
			}
		}
	}

	var out []Device
	if err := c.Do(ctx, http.MethodGet, "/v2/devices", q, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPolicies lists policies.
func (c *Client) GetPolicies(ctx context.Context) ([]Policy, error) {
	var out []Policy
	if err := c.Do(ctx, http.MethodGet, "/v2/policies", nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func listQuery(params *ListParams) (url.Values, error) {
	q := url.Values{}
	if params == nil {
		return q, nil
	}
	if params.PageSize > 0 {
		if err := addQueryParam(q, "pageSize", params.PageSize); err != nil {
			return nil, err
		}
	}
	if params.After > 0 {
		if err := addQueryParam(q, "after", params.After); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// addQueryParam styles value as an exploded form parameter.
func addQueryParam(q url.Values, name string, value any) error {
	frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return err
	}
	parsed, err := url.ParseQuery(frag)
	if err != nil {
		return err
	}
	for k, vs := range parsed {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return nil
}
